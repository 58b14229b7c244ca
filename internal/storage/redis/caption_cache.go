package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const captionKeyPrefix = "alttext:cache:"

// CaptionCache is the hot tier in front of the caption_cache table.
type CaptionCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCaptionCache(client *redis.Client, logger *zap.Logger) *CaptionCache {
	return &CaptionCache{
		client: client,
		logger: logger.Named("RedisCaptionCache"),
	}
}

func captionKey(locator string, variant caption.Variant) string {
	sum := sha256.Sum256([]byte(locator))
	return fmt.Sprintf("%s%s:%s", captionKeyPrefix, hex.EncodeToString(sum[:]), variant)
}

// Get returns caption.ErrCacheMiss when the key is absent or expired.
func (c *CaptionCache) Get(ctx context.Context, locator string, variant caption.Variant) (string, error) {
	text, err := c.client.Get(ctx, captionKey(locator, variant)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", caption.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get caption: %w", err)
	}
	return text, nil
}

// Set stores text for ttl. Non-positive ttl is a no-op.
func (c *CaptionCache) Set(ctx context.Context, locator string, variant caption.Variant, text string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, captionKey(locator, variant), text, ttl).Err(); err != nil {
		return fmt.Errorf("redis set caption: %w", err)
	}
	return nil
}
