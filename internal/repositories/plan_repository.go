package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memberly/internal/models/db_models"
)

type IPlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Plan, error)
	GetByCode(ctx context.Context, organizationID uuid.UUID, code string) (*db_models.Plan, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]db_models.Plan, error)
	Create(ctx context.Context, plan *db_models.Plan) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) IPlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) GetByCode(ctx context.Context, organizationID uuid.UUID, code string) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND code = ?", organizationID, code).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]db_models.Plan, error) {
	q := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if activeOnly {
		q = q.Where("is_active = TRUE")
	}
	var plans []db_models.Plan
	if err := q.Order("created_at ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PlanRepository) Create(ctx context.Context, plan *db_models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// Deactivate flips is_active off; pricing rows are never deleted because
// subscriptions and invoice snapshots reference them.
func (r *PlanRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Plan{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
