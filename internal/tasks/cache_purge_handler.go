package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/alttext-service-api/internal/metrics"
	"go.uber.org/zap"
)

// ExpiredCaptionPurger is implemented by the caption cache repository.
type ExpiredCaptionPurger interface {
	PurgeExpired(ctx context.Context, limit int) (int64, error)
}

// CachePurgeHandler deletes expired caption rows in batches. Reads already
// ignore them; this only reclaims space.
type CachePurgeHandler struct {
	repo   ExpiredCaptionPurger
	logger *zap.Logger
}

func NewCachePurgeHandler(repo ExpiredCaptionPurger, logger *zap.Logger) *CachePurgeHandler {
	return &CachePurgeHandler{
		repo:   repo,
		logger: logger.Named("CachePurgeHandler"),
	}
}

func (h *CachePurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeCachePurge {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p CachePurgePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for cache purge task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	batch := p.BatchSize
	if batch <= 0 {
		batch = defaultPurgeBatch
	}

	h.logger.Info("Purging expired caption cache rows", zap.Int("batch_size", batch))

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			h.logger.Warn("Cache purge interrupted", zap.Int64("deleted", total), zap.Error(err))
			return err
		}

		n, err := h.repo.PurgeExpired(ctx, batch)
		if err != nil {
			h.logger.Error("Failed to purge expired caption rows", zap.Int64("deleted_so_far", total), zap.Error(err))
			return fmt.Errorf("repository error purging caption cache: %w", err)
		}
		total += n
		metrics.CachePurged.Add(float64(n))

		if n < int64(batch) {
			break
		}
	}

	h.logger.Info("Cache purge finished", zap.Int64("deleted", total))
	return nil
}
