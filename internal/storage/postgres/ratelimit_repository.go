package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/makkenzo/alttext-service-api/internal/domain/ratelimit"
	"go.uber.org/zap"
)

type RateLimitRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewRateLimitRepository(db DBTX, logger *zap.Logger) *RateLimitRepository {
	return &RateLimitRepository{
		db:     db,
		logger: logger.Named("RateLimitRepository"),
	}
}

var _ ratelimit.Repository = (*RateLimitRepository)(nil)

func (r *RateLimitRepository) Find(ctx context.Context, userID uuid.UUID, day time.Time) (*ratelimit.Record, error) {
	query := `
		SELECT user_id, date, image_count
		FROM rate_limits
		WHERE user_id = $1 AND date = $2
	`
	var rec ratelimit.Record
	err := r.db.QueryRow(ctx, query, userID, day).Scan(&rec.UserID, &rec.Date, &rec.ImageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ratelimit.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error finding rate limit record: %w", err)
	}
	return &rec, nil
}

func (r *RateLimitRepository) Create(ctx context.Context, userID uuid.UUID, day time.Time) (*ratelimit.Record, error) {
	query := `
		INSERT INTO rate_limits (user_id, date, image_count)
		VALUES ($1, $2, 0)
		RETURNING user_id, date, image_count
	`
	var rec ratelimit.Record
	err := r.db.QueryRow(ctx, query, userID, day).Scan(&rec.UserID, &rec.Date, &rec.ImageCount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Debug("Rate limit row created concurrently", zap.String("user_id", userID.String()))
			return nil, ratelimit.ErrRecordExists
		}
		return nil, fmt.Errorf("db error creating rate limit record: %w", err)
	}
	return &rec, nil
}

func (r *RateLimitRepository) Increment(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT increment_rate_limit($1, $2)`, userID, day).Scan(&count); err != nil {
		r.logger.Error("Failed to increment rate limit", zap.String("user_id", userID.String()), zap.Error(err))
		return 0, fmt.Errorf("db error incrementing rate limit: %w", err)
	}
	return count, nil
}
