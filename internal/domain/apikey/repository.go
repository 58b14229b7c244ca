package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAPIKeyNotFound = errors.New("api key not found or revoked")

type Repository interface {
	// FindActiveByHash returns the non-revoked key with the given hash, or
	// ErrAPIKeyNotFound.
	FindActiveByHash(ctx context.Context, keyHash string) (*APIKey, error)
	Create(ctx context.Context, key *APIKey) (uuid.UUID, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error
}
