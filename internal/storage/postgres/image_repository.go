package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/alttext-service-api/internal/domain/image"
	"go.uber.org/zap"
)

// ImageStore is the entry point to the images table. It exposes no queries
// of its own; callers must bind an owner with ForUser first.
type ImageStore struct {
	db     DBTX
	logger *zap.Logger
}

func NewImageStore(db DBTX, logger *zap.Logger) *ImageStore {
	return &ImageStore{
		db:     db,
		logger: logger.Named("ImageStore"),
	}
}

var _ image.Store = (*ImageStore)(nil)

func (s *ImageStore) ForUser(userID uuid.UUID) image.Scoped {
	return &UserImages{db: s.db, userID: userID, logger: s.logger}
}

// UserImages runs every statement with a user_id predicate.
type UserImages struct {
	db     DBTX
	userID uuid.UUID
	logger *zap.Logger
}

var _ image.Scoped = (*UserImages)(nil)

func (u *UserImages) Get(ctx context.Context, id uuid.UUID) (*image.Image, error) {
	query := `
		SELECT id, user_id, storage_path, alt_text, updated_at
		FROM images
		WHERE id = $1 AND user_id = $2
	`
	var img image.Image
	err := u.db.QueryRow(ctx, query, id, u.userID).Scan(
		&img.ID,
		&img.UserID,
		&img.StoragePath,
		&img.AltText,
		&img.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, image.ErrNotFound
		}
		u.logger.Error("Failed to load image", zap.String("image_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error loading image: %w", err)
	}
	return &img, nil
}

func (u *UserImages) SetAltText(ctx context.Context, id uuid.UUID, altText string) error {
	query := `
		UPDATE images SET alt_text = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
	`
	cmdTag, err := u.db.Exec(ctx, query, altText, id, u.userID)
	if err != nil {
		return fmt.Errorf("db error updating image alt text: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return image.ErrNotFound
	}
	return nil
}
