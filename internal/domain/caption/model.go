package caption

import (
	"context"
	"errors"
	"time"
)

// Variant selects the prompt style used to describe an image.
type Variant string

const (
	VariantDefault       Variant = "default"
	VariantSEO           Variant = "seo"
	VariantLong          Variant = "long"
	VariantAccessibility Variant = "accessibility"
)

// ParseVariant returns the named variant, falling back to VariantDefault.
func ParseVariant(s string) Variant {
	switch v := Variant(s); v {
	case VariantSEO, VariantLong, VariantAccessibility:
		return v
	default:
		return VariantDefault
	}
}

const DefaultTTL = 30 * 24 * time.Hour

// Entry is a cached caption. (Locator, Variant) is unique.
type Entry struct {
	Locator   string    `db:"content_locator"`
	Variant   Variant   `db:"variant"`
	Text      string    `db:"caption_text"`
	ExpiresAt time.Time `db:"expires_at"`
}

var ErrCacheMiss = errors.New("caption cache miss")

type Repository interface {
	// Find returns the unexpired entry or ErrCacheMiss.
	Find(ctx context.Context, locator string, variant Variant) (*Entry, error)
	// Upsert replaces text and expiry for the key.
	Upsert(ctx context.Context, entry *Entry) error
	// PurgeExpired deletes up to limit expired rows and returns how many went.
	PurgeExpired(ctx context.Context, limit int) (int64, error)
}
