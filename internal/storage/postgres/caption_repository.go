package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"go.uber.org/zap"
)

type CaptionCacheRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewCaptionCacheRepository(db DBTX, logger *zap.Logger) *CaptionCacheRepository {
	return &CaptionCacheRepository{
		db:     db,
		logger: logger.Named("CaptionCacheRepository"),
	}
}

var _ caption.Repository = (*CaptionCacheRepository)(nil)

func (r *CaptionCacheRepository) Find(ctx context.Context, locator string, variant caption.Variant) (*caption.Entry, error) {
	query := `
		SELECT content_locator, variant, caption_text, expires_at
		FROM caption_cache
		WHERE content_locator = $1 AND variant = $2 AND expires_at > now()
	`
	var e caption.Entry
	var v string
	err := r.db.QueryRow(ctx, query, locator, string(variant)).Scan(&e.Locator, &v, &e.Text, &e.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caption.ErrCacheMiss
		}
		return nil, fmt.Errorf("db error reading caption cache: %w", err)
	}
	e.Variant = caption.Variant(v)
	return &e, nil
}

func (r *CaptionCacheRepository) Upsert(ctx context.Context, entry *caption.Entry) error {
	query := `
		INSERT INTO caption_cache (content_locator, variant, caption_text, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_locator, variant)
		DO UPDATE SET caption_text = EXCLUDED.caption_text,
		              expires_at   = EXCLUDED.expires_at
	`
	_, err := r.db.Exec(ctx, query, entry.Locator, string(entry.Variant), entry.Text, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error writing caption cache: %w", err)
	}
	return nil
}

func (r *CaptionCacheRepository) PurgeExpired(ctx context.Context, limit int) (int64, error) {
	query := `
		DELETE FROM caption_cache
		WHERE ctid IN (
			SELECT ctid FROM caption_cache
			WHERE expires_at <= now()
			LIMIT $1
		)
	`
	cmdTag, err := r.db.Exec(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to purge expired caption cache rows", zap.Error(err))
		return 0, fmt.Errorf("db error purging caption cache: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
