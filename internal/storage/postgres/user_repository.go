package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/alttext-service-api/internal/domain/user"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewUserRepository(db DBTX, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetPlan(ctx context.Context, userID uuid.UUID) (user.Tier, error) {
	var plan string
	err := r.db.QueryRow(ctx, `SELECT plan FROM profiles WHERE user_id = $1`, userID).Scan(&plan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.TierFree, user.ErrUserNotFound
		}
		r.logger.Error("Failed to load user plan", zap.String("user_id", userID.String()), zap.Error(err))
		return user.TierFree, fmt.Errorf("db error loading plan: %w", err)
	}
	return user.ParseTier(plan), nil
}
