package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/apikey"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"github.com/makkenzo/alttext-service-api/internal/util"
	"go.uber.org/zap"
)

// IssuedAPIKey carries the raw key. It is the only place the raw key ever
// exists; only its hash is persisted.
type IssuedAPIKey struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	FullKey string
	Prefix  string
	Name    string
}

type APIKeyService struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewAPIKeyService(repo apikey.Repository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:   repo,
		logger: logger.Named("APIKeyService"),
	}
}

func (s *APIKeyService) CreateAPIKey(ctx context.Context, userID uuid.UUID, name string) (*IssuedAPIKey, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", ierr.ErrValidation)
	}
	s.logger.Info("Generating new API key", zap.String("user_id", userID.String()), zap.String("name", name))

	fullKey, prefix, keyHash, err := util.GenerateAPIKey()
	if err != nil {
		s.logger.Error("Failed to generate api key components", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating key: %v", ierr.ErrInternalServer, err)
	}

	insertedID, err := s.repo.Create(ctx, &apikey.APIKey{
		UserID:  userID,
		KeyHash: keyHash,
		Prefix:  prefix,
		Name:    name,
	})
	if err != nil {
		s.logger.Error("Failed to save new api key", zap.Error(err))
		return nil, fmt.Errorf("repository error creating api key: %w", err)
	}

	s.logger.Info("API key created successfully", zap.String("id", insertedID.String()), zap.String("prefix", prefix))

	return &IssuedAPIKey{
		ID:      insertedID,
		UserID:  userID,
		FullKey: fullKey,
		Prefix:  prefix,
		Name:    name,
	}, nil
}
