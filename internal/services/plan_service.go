package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"memberly/internal/models/db_models"
	"memberly/internal/models/request_models"
	"memberly/internal/models/response_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type IPlanService interface {
	Create(ctx context.Context, organizationID uuid.UUID, req request_models.CreatePlanRequest) (*response_models.PlanResponse, error)
	GetByID(ctx context.Context, planID uuid.UUID) (*response_models.PlanResponse, error)
	List(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]response_models.PlanResponse, error)
	Deactivate(ctx context.Context, planID uuid.UUID) error
}

type PlanService struct {
	planRepo repositories.IPlanRepository
}

func NewPlanService(planRepo repositories.IPlanRepository) IPlanService {
	return &PlanService{planRepo: planRepo}
}

func (p *PlanService) Create(ctx context.Context, organizationID uuid.UUID, req request_models.CreatePlanRequest) (*response_models.PlanResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be a positive decimal", utils.ErrValidation)
	}
	if !utils.ValidInterval(req.Interval) {
		return nil, fmt.Errorf("%w: unknown interval %q", utils.ErrValidation, req.Interval)
	}

	existing, err := p.planRepo.GetByCode(ctx, organizationID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: plan code %s already exists", utils.ErrConflict, req.Code)
	}

	intervalCount := req.IntervalCount
	if intervalCount <= 0 {
		intervalCount = 1
	}

	plan := &db_models.Plan{
		OrganizationID: organizationID,
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		Amount:         amount.Round(2),
		Currency:       req.Currency,
		Interval:       req.Interval,
		IntervalCount:  intervalCount,
		TrialDays:      req.TrialDays,
		IsActive:       true,
		Features:       req.Features,
	}
	if err := p.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return toPlanResponse(plan), nil
}

func (p *PlanService) GetByID(ctx context.Context, planID uuid.UUID) (*response_models.PlanResponse, error) {
	plan, err := p.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: plan", utils.ErrNotFound)
	}
	return toPlanResponse(plan), nil
}

func (p *PlanService) List(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]response_models.PlanResponse, error) {
	plans, err := p.planRepo.ListByOrganization(ctx, organizationID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	out := make([]response_models.PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, *toPlanResponse(&plans[i]))
	}
	return out, nil
}

func (p *PlanService) Deactivate(ctx context.Context, planID uuid.UUID) error {
	plan, err := p.planRepo.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil {
		return fmt.Errorf("%w: plan", utils.ErrNotFound)
	}
	if !plan.IsActive {
		return fmt.Errorf("%w: plan already inactive", utils.ErrConflict)
	}
	return p.planRepo.Deactivate(ctx, planID)
}

func toPlanResponse(plan *db_models.Plan) *response_models.PlanResponse {
	return &response_models.PlanResponse{
		ID:            plan.ID,
		Code:          plan.Code,
		Name:          plan.Name,
		Description:   plan.Description,
		Amount:        plan.Amount.StringFixed(2),
		Currency:      plan.Currency,
		Interval:      plan.Interval,
		IntervalCount: plan.IntervalCount,
		TrialDays:     plan.TrialDays,
		IsActive:      plan.IsActive,
		Features:      plan.Features,
	}
}
