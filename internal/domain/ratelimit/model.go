package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Record is the per-user counter for one calendar day (UTC). Rows are never
// deleted.
type Record struct {
	UserID     uuid.UUID `db:"user_id"`
	Date       time.Time `db:"date"`
	ImageCount int       `db:"image_count"`
}

var (
	ErrRecordNotFound = errors.New("rate limit record not found")
	ErrRecordExists   = errors.New("rate limit record already exists")
)

type Repository interface {
	Find(ctx context.Context, userID uuid.UUID, day time.Time) (*Record, error)
	// Create inserts a zero-count row and returns ErrRecordExists when a
	// concurrent request created it first.
	Create(ctx context.Context, userID uuid.UUID, day time.Time) (*Record, error)
	// Increment atomically adds one to the day's counter, creating the row if
	// needed, and returns the new count.
	Increment(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
}
