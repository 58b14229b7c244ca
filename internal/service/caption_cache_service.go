package service

import (
	"context"
	"errors"
	"time"

	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/makkenzo/alttext-service-api/internal/metrics"
	"go.uber.org/zap"
)

// HotCache is an optional fast tier in front of the caption table.
type HotCache interface {
	Get(ctx context.Context, locator string, variant caption.Variant) (string, error)
	Set(ctx context.Context, locator string, variant caption.Variant, text string, ttl time.Duration) error
}

// CaptionCacheService is the content-addressed result cache. It is shared
// by all users and every failure degrades to a miss.
type CaptionCacheService struct {
	repo   caption.Repository
	hot    HotCache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewCaptionCacheService builds the cache; hot may be nil.
func NewCaptionCacheService(repo caption.Repository, hot HotCache, ttl time.Duration, logger *zap.Logger) *CaptionCacheService {
	if ttl <= 0 {
		ttl = caption.DefaultTTL
	}
	return &CaptionCacheService{
		repo:   repo,
		hot:    hot,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("CaptionCache"),
	}
}

// Get returns the cached caption and true, or "" and false on a miss.
func (s *CaptionCacheService) Get(ctx context.Context, locator string, variant caption.Variant) (string, bool) {
	if s.hot != nil {
		text, err := s.hot.Get(ctx, locator, variant)
		switch {
		case err == nil:
			metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
			return text, true
		case errors.Is(err, caption.ErrCacheMiss):
			metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		default:
			metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
			s.logger.Warn("Hot cache read failed", zap.String("variant", string(variant)), zap.Error(err))
		}
	}

	entry, err := s.repo.Find(ctx, locator, variant)
	if err != nil {
		if errors.Is(err, caption.ErrCacheMiss) {
			metrics.CacheLookups.WithLabelValues("postgres", "miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("postgres", "error").Inc()
			s.logger.Warn("Cache read failed, treating as miss", zap.String("variant", string(variant)), zap.Error(err))
		}
		return "", false
	}
	metrics.CacheLookups.WithLabelValues("postgres", "hit").Inc()

	if s.hot != nil {
		if err := s.hot.Set(ctx, locator, variant, entry.Text, entry.ExpiresAt.Sub(s.now())); err != nil {
			s.logger.Warn("Hot cache backfill failed", zap.Error(err))
		}
	}
	return entry.Text, true
}

// Put upserts the caption and resets its expiry. Failures are logged only.
func (s *CaptionCacheService) Put(ctx context.Context, locator string, variant caption.Variant, text string) {
	entry := &caption.Entry{
		Locator:   locator,
		Variant:   variant,
		Text:      text,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		s.logger.Error("Failed to persist caption", zap.String("variant", string(variant)), zap.Error(err))
	}

	if s.hot != nil {
		if err := s.hot.Set(ctx, locator, variant, text, s.ttl); err != nil {
			s.logger.Warn("Hot cache write failed", zap.Error(err))
		}
	}
}
