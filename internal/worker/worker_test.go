package worker

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/alttext-service-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ asynq.Logger = (*asynqLoggerAdapter)(nil)

func TestAsynqLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewAsynqLoggerAdapter(zap.New(core))

	l.Info("scheduler ", "started")
	l.Warn("retrying")
	l.Error("boom")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "scheduler started", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestRedisConnOpt(t *testing.T) {
	opt := RedisConnOpt(&config.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2})
	assert.Equal(t, asynq.RedisClientOpt{Addr: "redis:6379", Password: "pw", DB: 2}, opt)
}
