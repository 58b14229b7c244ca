package image

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Image is a managed upload. Only the owner may read it or set its alt text.
type Image struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	StoragePath string         `db:"storage_path"`
	AltText     sql.NullString `db:"alt_text"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

var ErrNotFound = errors.New("image not found")

// Store hands out owner-scoped handles; images cannot be queried without
// naming the owner first.
type Store interface {
	ForUser(userID uuid.UUID) Scoped
}

// Scoped is an image handle bound to a single owner; every query it runs is
// filtered by that owner.
type Scoped interface {
	Get(ctx context.Context, id uuid.UUID) (*Image, error)
	SetAltText(ctx context.Context, id uuid.UUID, altText string) error
}
