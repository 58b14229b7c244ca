package postgres

import (
	"context"
	"fmt"

	"github.com/makkenzo/alttext-service-api/internal/domain/usage"
	"go.uber.org/zap"
)

type UsageLogRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewUsageLogRepository(db DBTX, logger *zap.Logger) *UsageLogRepository {
	return &UsageLogRepository{
		db:     db,
		logger: logger.Named("UsageLogRepository"),
	}
}

var _ usage.Repository = (*UsageLogRepository)(nil)

func (r *UsageLogRepository) Append(ctx context.Context, entry *usage.LogEntry) error {
	query := `
		INSERT INTO api_usage_logs (user_id, api_key_id, endpoint, method, status_code)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		entry.UserID,
		entry.APIKeyID,
		entry.Endpoint,
		entry.Method,
		entry.StatusCode,
	)
	if err != nil {
		return fmt.Errorf("db error appending usage log: %w", err)
	}
	return nil
}
