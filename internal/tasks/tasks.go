package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCachePurge = "caption_cache:purge"

	defaultPurgeBatch = 1000
)

type CachePurgePayload struct {
	BatchSize int `json:"batch_size"`
}

func NewCachePurgeTask(batchSize int, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(CachePurgePayload{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}

	allOpts := append(opts, asynq.Unique(1*time.Hour), asynq.Queue("low"))

	return asynq.NewTask(TypeCachePurge, payloadBytes, allOpts...), nil
}
