package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memberly/internal/models/db_models"
)

type IStoredAuthorizationRepository interface {
	GetByMember(ctx context.Context, memberID uuid.UUID) (*db_models.StoredAuthorization, error)
	Upsert(ctx context.Context, auth *db_models.StoredAuthorization) error
	Invalidate(ctx context.Context, memberID uuid.UUID) error
}

type StoredAuthorizationRepository struct {
	db *gorm.DB
}

func NewStoredAuthorizationRepository(db *gorm.DB) IStoredAuthorizationRepository {
	return &StoredAuthorizationRepository{db: db}
}

func (r *StoredAuthorizationRepository) GetByMember(ctx context.Context, memberID uuid.UUID) (*db_models.StoredAuthorization, error) {
	var auth db_models.StoredAuthorization
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND reusable = TRUE", memberID).
		First(&auth).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth, nil
}

// Upsert replaces the member's stored token; latest successful charge wins.
func (r *StoredAuthorizationRepository) Upsert(ctx context.Context, auth *db_models.StoredAuthorization) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider", "authorization_code", "card_type", "last4", "bank", "reusable", "updated_at",
			}),
		}).
		Create(auth).Error
}

func (r *StoredAuthorizationRepository) Invalidate(ctx context.Context, memberID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.StoredAuthorization{}).
		Where("member_id = ?", memberID).
		Update("reusable", false).Error
}
