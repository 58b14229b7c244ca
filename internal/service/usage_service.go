package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/principal"
	"github.com/makkenzo/alttext-service-api/internal/domain/usage"
	"go.uber.org/zap"
)

const (
	GenerateEndpoint = "/generate-alt-text"
	GenerateMethod   = http.MethodPost

	recordTimeout = 5 * time.Second
)

// QuotaCounter is the write side of the rate limiter.
type QuotaCounter interface {
	Increment(ctx context.Context, userID uuid.UUID) (int, error)
}

// UsageService accounts for a finished request: API-key calls get an audit
// row, successful fresh session generations bump the daily counter.
type UsageService struct {
	logs    usage.Repository
	counter QuotaCounter
	now     func() time.Time
	logger  *zap.Logger
}

func NewUsageService(logs usage.Repository, counter QuotaCounter, logger *zap.Logger) *UsageService {
	return &UsageService{
		logs:    logs,
		counter: counter,
		now:     time.Now,
		logger:  logger.Named("UsageRecorder"),
	}
}

// Record never fails. It detaches from ctx cancellation so a client hanging
// up does not lose the accounting.
func (s *UsageService) Record(ctx context.Context, p principal.Principal, status int, cached bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	switch p := p.(type) {
	case principal.APIKey:
		entry := &usage.LogEntry{
			UserID:     p.UserID,
			APIKeyID:   p.APIKeyID,
			Endpoint:   GenerateEndpoint,
			Method:     GenerateMethod,
			StatusCode: status,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.logs.Append(ctx, entry); err != nil {
			s.logger.Error("Failed to write usage log",
				zap.String("api_key_id", p.APIKeyID.String()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
	case principal.Session:
		if status != http.StatusOK || cached {
			return
		}
		count, err := s.counter.Increment(ctx, p.UserID)
		if err != nil {
			s.logger.Error("Failed to increment daily usage", zap.String("user_id", p.UserID.String()), zap.Error(err))
			return
		}
		s.logger.Debug("Daily usage incremented", zap.String("user_id", p.UserID.String()), zap.Int("count", count))
	}
}
