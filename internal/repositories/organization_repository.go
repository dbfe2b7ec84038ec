package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memberly/internal/models/db_models"
)

type IOrganizationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error)
	GetByCode(ctx context.Context, code string) (*db_models.Organization, error)
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) IOrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error) {
	var org db_models.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) GetByCode(ctx context.Context, code string) (*db_models.Organization, error) {
	var org db_models.Organization
	err := r.db.WithContext(ctx).First(&org, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}
