package repository

import (
	"context"
	"time"

	"premium-blog-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GrantRepository interface {
	// Apply records the grant if the session has not been applied before.
	// Returns false when this session was already recorded, so concurrent
	// or repeated verification of the same session converges on one grant.
	Apply(ctx context.Context, tx *gorm.DB, grant *model.PremiumGrant) (bool, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type grantRepoImpl struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) GrantRepository {
	return &grantRepoImpl{
		db: db,
	}
}

func (r *grantRepoImpl) Apply(ctx context.Context, tx *gorm.DB, grant *model.PremiumGrant) (bool, error) {
	if grant.GrantedAt.IsZero() {
		grant.GrantedAt = time.Now()
	}

	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(grant)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *grantRepoImpl) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PremiumGrant{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error

	return count > 0, err
}
