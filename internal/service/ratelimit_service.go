package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/ratelimit"
	"github.com/makkenzo/alttext-service-api/internal/domain/user"
	"github.com/makkenzo/alttext-service-api/internal/metrics"
	"go.uber.org/zap"
)

// Unlimited is reported as Limit and Remaining for plans without a quota.
const Unlimited = -1

// Quota is the outcome of a daily quota check.
type Quota struct {
	Count      int
	Limit      int
	Remaining  int
	CanProceed bool
	Unlimited  bool
	// FailedOpen is set when the store could not be reached and the request
	// was allowed anyway.
	FailedOpen bool
}

type RateLimitService struct {
	repo       ratelimit.Repository
	plans      PlanResolver
	freeLimit  int
	retryDelay time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewRateLimitService(repo ratelimit.Repository, plans PlanResolver, freeLimit int, retryDelay time.Duration, logger *zap.Logger) *RateLimitService {
	return &RateLimitService{
		repo:       repo,
		plans:      plans,
		freeLimit:  freeLimit,
		retryDelay: retryDelay,
		now:        time.Now,
		logger:     logger.Named("RateLimiter"),
	}
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Check reports today's usage for userID. Store failures are retried once
// and then fail open.
func (s *RateLimitService) Check(ctx context.Context, userID uuid.UUID) Quota {
	tier, err := s.plans.Plan(ctx, userID)
	if err != nil {
		s.logger.Warn("Plan lookup failed, applying free limit", zap.String("user_id", userID.String()), zap.Error(err))
		tier = user.TierFree
	}
	if tier == user.TierPro {
		return Quota{Limit: Unlimited, Remaining: Unlimited, CanProceed: true, Unlimited: true}
	}

	limit := s.freeLimit
	day := today(s.now())

	count, err := s.currentCount(ctx, userID, day)
	if err != nil {
		s.logger.Warn("Rate limit lookup failed, retrying",
			zap.String("user_id", userID.String()),
			zap.Duration("delay", s.retryDelay),
			zap.Error(err),
		)
		if waitErr := sleepCtx(ctx, s.retryDelay); waitErr == nil {
			count, err = s.currentCount(ctx, userID, day)
		} else {
			err = waitErr
		}
	}
	if err != nil {
		s.logger.Error("Rate limit store unavailable, failing open", zap.String("user_id", userID.String()), zap.Error(err))
		metrics.RateLimitFailOpen.Inc()
		return Quota{Limit: limit, Remaining: limit, CanProceed: true, FailedOpen: true}
	}

	return Quota{
		Count:      count,
		Limit:      limit,
		Remaining:  max(0, limit-count),
		CanProceed: count < limit,
	}
}

// currentCount fetches today's row, creating it when absent. A concurrent
// creator winning the insert is resolved by reading its row.
func (s *RateLimitService) currentCount(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	rec, err := s.repo.Find(ctx, userID, day)
	if err == nil {
		return rec.ImageCount, nil
	}
	if !errors.Is(err, ratelimit.ErrRecordNotFound) {
		return 0, err
	}

	rec, err = s.repo.Create(ctx, userID, day)
	if err == nil {
		return rec.ImageCount, nil
	}
	if !errors.Is(err, ratelimit.ErrRecordExists) {
		return 0, err
	}

	s.logger.Debug("Lost race creating rate limit row, refetching", zap.String("user_id", userID.String()))
	rec, err = s.repo.Find(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("refetch after conflict: %w", err)
	}
	return rec.ImageCount, nil
}

// Increment atomically adds one generation to today's counter.
func (s *RateLimitService) Increment(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.repo.Increment(ctx, userID, today(s.now()))
	if err != nil {
		return 0, fmt.Errorf("increment rate limit for %s: %w", userID, err)
	}
	return count, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
