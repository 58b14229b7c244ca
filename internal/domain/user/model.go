package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Tier is a subscription plan.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ParseTier maps a stored plan name to a Tier. Anything unrecognised is free.
func ParseTier(s string) Tier {
	if Tier(s) == TierPro {
		return TierPro
	}
	return TierFree
}

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	GetPlan(ctx context.Context, userID uuid.UUID) (Tier, error)
}
