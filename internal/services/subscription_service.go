package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"memberly/internal/models/db_models"
	"memberly/internal/models/response_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type ISubscriptionService interface {
	Create(ctx context.Context, memberID uuid.UUID, planCode string, metadata map[string]string) (*response_models.SubscribeResponse, error)
	Get(ctx context.Context, memberID, subscriptionID uuid.UUID) (*response_models.SubscriptionResponse, error)
	ListForMember(ctx context.Context, memberID uuid.UUID) ([]response_models.SubscriptionResponse, error)
	Cancel(ctx context.Context, memberID, subscriptionID uuid.UUID) error
	Pause(ctx context.Context, memberID, subscriptionID uuid.UUID) error
	Resume(ctx context.Context, memberID, subscriptionID uuid.UUID) error
}

type SubscriptionService struct {
	subs       repositories.ISubscriptionRepository
	plans      repositories.IPlanRepository
	members    repositories.IMemberRepository
	auths      repositories.IStoredAuthorizationRepository
	invoiceSvc IInvoiceService
	log        *logrus.Logger
}

func NewSubscriptionService(
	subs repositories.ISubscriptionRepository,
	plans repositories.IPlanRepository,
	members repositories.IMemberRepository,
	auths repositories.IStoredAuthorizationRepository,
	invoiceSvc IInvoiceService,
	log *logrus.Logger,
) ISubscriptionService {
	return &SubscriptionService{
		subs:       subs,
		plans:      plans,
		members:    members,
		auths:      auths,
		invoiceSvc: invoiceSvc,
		log:        log,
	}
}

// Create starts a new subscription. Plans with a trial begin in trialing and
// are invoiced at trial end; everything else begins pending with the first
// invoice generated immediately, waiting on the checkout payment.
func (s *SubscriptionService) Create(ctx context.Context, memberID uuid.UUID, planCode string, metadata map[string]string) (*response_models.SubscribeResponse, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if member == nil || !member.IsActive {
		return nil, fmt.Errorf("%w: member", utils.ErrNotFound)
	}

	plan, err := s.plans.GetByCode(ctx, member.OrganizationID, planCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil || !plan.IsActive {
		return nil, fmt.Errorf("%w: plan %s", utils.ErrNotFound, planCode)
	}

	live, err := s.subs.FindLive(ctx, memberID, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if live != nil {
		return nil, fmt.Errorf("%w: subscription to %s already %s", utils.ErrConflict, planCode, live.Status)
	}

	now := time.Now().UTC()
	sub := &db_models.Subscription{
		OrganizationID:     member.OrganizationID,
		MemberID:           memberID,
		PlanID:             plan.ID,
		CurrentPeriodStart: now.Unix(),
		AutoRenew:          true,
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			sub.Metadata = datatypes.JSON(raw)
		}
	}

	if plan.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, int(plan.TrialDays)).Unix()
		sub.Status = db_models.SubStatusTrialing
		sub.TrialEnd = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	} else {
		sub.Status = db_models.SubStatusPending
		sub.CurrentPeriodEnd = utils.AddInterval(now, plan.Interval, plan.IntervalCount).Unix()
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	out := &response_models.SubscribeResponse{Subscription: toSubscriptionResponse(sub, plan)}

	if plan.TrialDays == 0 {
		invoice, err := s.invoiceSvc.GenerateForPeriod(ctx, sub, plan, sub.CurrentPeriodStart)
		if err != nil {
			return nil, err
		}
		out.FirstInvoiceID = &invoice.ID
	}

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"member_id":       memberID,
		"plan_code":       planCode,
		"status":          sub.Status,
	}).Info("subscription created")

	return out, nil
}

func (s *SubscriptionService) Get(ctx context.Context, memberID, subscriptionID uuid.UUID) (*response_models.SubscriptionResponse, error) {
	sub, err := s.ownedSubscription(ctx, memberID, subscriptionID)
	if err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(sub, &sub.Plan)
	return &resp, nil
}

func (s *SubscriptionService) ListForMember(ctx context.Context, memberID uuid.UUID) ([]response_models.SubscriptionResponse, error) {
	subs, err := s.subs.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	out := make([]response_models.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, toSubscriptionResponse(&subs[i], &subs[i].Plan))
	}
	return out, nil
}

// Cancel ends the subscription immediately, with no grace period, and
// invalidates the stored charge authorization so the scheduler can never
// renew it off-session again.
func (s *SubscriptionService) Cancel(ctx context.Context, memberID, subscriptionID uuid.UUID) error {
	sub, err := s.ownedSubscription(ctx, memberID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status.Terminal() {
		return fmt.Errorf("%w: subscription already %s", utils.ErrConflict, sub.Status)
	}

	now := time.Now().Unix()
	sub.Status = db_models.SubStatusCanceled
	sub.CanceledAt = &now
	sub.EndedAt = &now
	sub.AutoRenew = false
	if err := s.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	if err := s.auths.Invalidate(ctx, memberID); err != nil {
		s.log.WithError(err).WithField("member_id", memberID).
			Warn("failed to invalidate stored authorization")
	}

	s.log.WithField("subscription_id", subscriptionID).Info("subscription canceled")
	return nil
}

func (s *SubscriptionService) Pause(ctx context.Context, memberID, subscriptionID uuid.UUID) error {
	sub, err := s.ownedSubscription(ctx, memberID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != db_models.SubStatusActive {
		return fmt.Errorf("%w: cannot pause a %s subscription", utils.ErrConflict, sub.Status)
	}
	sub.Status = db_models.SubStatusPaused
	if err := s.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return nil
}

// Resume reactivates a paused subscription. The period is not extended: time
// spent paused still counts against the current period.
func (s *SubscriptionService) Resume(ctx context.Context, memberID, subscriptionID uuid.UUID) error {
	sub, err := s.ownedSubscription(ctx, memberID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != db_models.SubStatusPaused {
		return fmt.Errorf("%w: cannot resume a %s subscription", utils.ErrConflict, sub.Status)
	}
	sub.Status = db_models.SubStatusActive
	if err := s.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return nil
}

func (s *SubscriptionService) ownedSubscription(ctx context.Context, memberID, subscriptionID uuid.UUID) (*db_models.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if sub == nil || sub.MemberID != memberID {
		return nil, fmt.Errorf("%w: subscription", utils.ErrNotFound)
	}
	return sub, nil
}

func toSubscriptionResponse(sub *db_models.Subscription, plan *db_models.Plan) response_models.SubscriptionResponse {
	resp := response_models.SubscriptionResponse{
		ID:                 sub.ID,
		PlanID:             sub.PlanID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEnd:           sub.TrialEnd,
		CanceledAt:         sub.CanceledAt,
		EndedAt:            sub.EndedAt,
		AutoRenew:          sub.AutoRenew,
	}
	if plan != nil {
		resp.PlanCode = plan.Code
	}
	return resp
}
