package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"propertyalerts/internal/types"
)

// ProfileRepository reads buyer profile attributes.
type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetSubscriptionTier returns the stored tier, or "" when the column is NULL.
func (r *ProfileRepository) GetSubscriptionTier(ctx context.Context, buyerID string) (types.SubscriptionTier, error) {
	var tier *string
	err := r.db.QueryRow(ctx,
		`SELECT subscription_tier FROM profiles WHERE id = $1`,
		buyerID,
	).Scan(&tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
		}
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to get subscription tier", err)
	}
	return types.SubscriptionTier(deref(tier)), nil
}
