package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/user"
	"go.uber.org/zap"
)

// PlanResolver answers which subscription tier a user is on.
type PlanResolver interface {
	Plan(ctx context.Context, userID uuid.UUID) (user.Tier, error)
}

type PlanService struct {
	repo   user.Repository
	logger *zap.Logger
}

func NewPlanService(repo user.Repository, logger *zap.Logger) *PlanService {
	return &PlanService{
		repo:   repo,
		logger: logger.Named("PlanService"),
	}
}

func (s *PlanService) Plan(ctx context.Context, userID uuid.UUID) (user.Tier, error) {
	tier, err := s.repo.GetPlan(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to look up plan", zap.String("user_id", userID.String()), zap.Error(err))
		return user.TierFree, fmt.Errorf("plan lookup for user %s: %w", userID, err)
	}
	return tier, nil
}
