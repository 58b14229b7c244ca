package apikey

import (
	"time"

	"github.com/google/uuid"
)

type APIKey struct {
	ID         uuid.UUID  `db:"id"`
	UserID     uuid.UUID  `db:"user_id"`
	KeyHash    string     `db:"key_hash"`
	Prefix     string     `db:"prefix"`
	Name       string     `db:"name"`
	RevokedAt  *time.Time `db:"revoked_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Usable reports whether the key may authenticate requests.
func (k *APIKey) Usable() bool {
	return k.RevokedAt == nil
}

const (
	APIKeyPrefixLength = 8
	APIKeySecretLength = 32
	APIKeyFormat       = "ak_%s_%s"
)
