package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makkenzo/alttext-service-api/internal/domain/apikey"
	"github.com/makkenzo/alttext-service-api/internal/domain/principal"
	"github.com/makkenzo/alttext-service-api/internal/domain/user"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"github.com/makkenzo/alttext-service-api/internal/util"
	"go.uber.org/zap"
)

const lastUsedTimeout = 5 * time.Second

// Credentials are the raw authentication inputs of a request. A bearer
// header selects API-key mode and the session is then ignored, even when the
// token itself is empty.
type Credentials struct {
	HasBearer    bool
	BearerToken  string
	SessionToken string
}

type CredentialService struct {
	keys     apikey.Repository
	plans    PlanResolver
	sessions SessionAuthenticator
	logger   *zap.Logger
}

func NewCredentialService(keys apikey.Repository, plans PlanResolver, sessions SessionAuthenticator, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		keys:     keys,
		plans:    plans,
		sessions: sessions,
		logger:   logger.Named("CredentialService"),
	}
}

// Resolve returns exactly one principal or an auth error.
func (s *CredentialService) Resolve(ctx context.Context, creds Credentials) (principal.Principal, error) {
	if creds.HasBearer || creds.BearerToken != "" {
		if creds.BearerToken == "" {
			return nil, ierr.ErrInvalidAPIKey
		}
		return s.resolveAPIKey(ctx, creds.BearerToken)
	}

	userID, err := s.sessions.Authenticate(ctx, creds.SessionToken)
	if err != nil {
		s.logger.Debug("Session authentication failed", zap.Error(err))
		if errors.Is(err, ierr.ErrInvalidSession) || errors.Is(err, ierr.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ierr.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	return principal.Session{UserID: userID}, nil
}

func (s *CredentialService) resolveAPIKey(ctx context.Context, token string) (principal.Principal, error) {
	key, err := s.keys.FindActiveByHash(ctx, util.HashAPIKey(token))
	if err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			s.logger.Warn("Rejected unknown or revoked api key")
			return nil, ierr.ErrInvalidAPIKey
		}
		s.logger.Error("Failed to look up api key", zap.Error(err))
		return nil, fmt.Errorf("api key lookup: %w", err)
	}
	if !key.Usable() {
		return nil, ierr.ErrInvalidAPIKey
	}

	tier, err := s.plans.Plan(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ierr.ErrPlanRequired
		}
		return nil, fmt.Errorf("%w: plan lookup: %v", ierr.ErrInternalServer, err)
	}
	if tier != user.TierPro {
		s.logger.Info("Rejected api key for non-pro plan",
			zap.String("api_key_id", key.ID.String()),
			zap.String("user_id", key.UserID.String()),
		)
		return nil, ierr.ErrPlanRequired
	}

	go s.touchLastUsed(key)

	return principal.APIKey{UserID: key.UserID, APIKeyID: key.ID}, nil
}

func (s *CredentialService) touchLastUsed(key *apikey.APIKey) {
	ctx, cancel := context.WithTimeout(context.Background(), lastUsedTimeout)
	defer cancel()

	if err := s.keys.UpdateLastUsed(ctx, key.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("Failed to update api key last used time", zap.String("api_key_id", key.ID.String()), zap.Error(err))
	}
}
