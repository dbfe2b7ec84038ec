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
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type IInvoiceService interface {
	// GenerateForPeriod creates the single invoice for the subscription
	// period starting at periodStart. Regenerating an already-invoiced
	// period is rejected with Conflict.
	GenerateForPeriod(ctx context.Context, sub *db_models.Subscription, plan *db_models.Plan, periodStart int64) (*db_models.Invoice, error)
	GetByID(ctx context.Context, invoiceID uuid.UUID) (*db_models.Invoice, error)
	Cancel(ctx context.Context, invoiceID uuid.UUID) error
}

type InvoiceService struct {
	invoices repositories.IInvoiceRepository
	orgs     repositories.IOrganizationRepository
	log      *logrus.Logger
}

func NewInvoiceService(
	invoices repositories.IInvoiceRepository,
	orgs repositories.IOrganizationRepository,
	log *logrus.Logger,
) IInvoiceService {
	return &InvoiceService{invoices: invoices, orgs: orgs, log: log}
}

func (s *InvoiceService) GenerateForPeriod(ctx context.Context, sub *db_models.Subscription, plan *db_models.Plan, periodStart int64) (*db_models.Invoice, error) {
	existing, err := s.invoices.FindByPeriod(ctx, sub.ID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: period already invoiced (%s)", utils.ErrConflict, existing.InvoiceNumber)
	}

	org, err := s.orgs.GetByID(ctx, sub.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization", utils.ErrNotFound)
	}

	start := time.Unix(periodStart, 0).UTC()
	periodEnd := utils.AddInterval(start, plan.Interval, plan.IntervalCount).Unix()

	// The invoice falls due when the running period ends. For a renewal (or a
	// trial conversion) the billed period starts exactly where the current
	// one ends, so payment is due on that date, not an interval later.
	dueDate := periodEnd
	if periodStart == sub.CurrentPeriodEnd {
		dueDate = periodStart
	}

	number, err := s.invoices.NextInvoiceNumber(ctx, org.ID, org.Code, start.Year())
	if err != nil {
		return nil, fmt.Errorf("%w: allocate invoice number: %v", utils.ErrDatabaseError, err)
	}

	// Plan terms are snapshotted so later plan edits never rewrite history.
	snapshot, _ := json.Marshal(map[string]any{
		"plan_code":      plan.Code,
		"plan_interval":  plan.Interval,
		"interval_count": plan.IntervalCount,
	})

	invoice := &db_models.Invoice{
		OrganizationID: sub.OrganizationID,
		SubscriptionID: sub.ID,
		MemberID:       sub.MemberID,
		PlanID:         plan.ID,
		InvoiceNumber:  number,
		PlanName:       plan.Name,
		Amount:         plan.Amount,
		Currency:       plan.Currency,
		Status:         db_models.InvoiceStatusPending,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		DueDate:        dueDate,
		Metadata:       datatypes.JSON(snapshot),
	}
	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	s.log.WithFields(logrus.Fields{
		"invoice_number":  number,
		"subscription_id": sub.ID,
		"amount":          plan.Amount.StringFixed(2),
		"currency":        plan.Currency,
	}).Info("invoice generated")

	return invoice, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, invoiceID uuid.UUID) (*db_models.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice", utils.ErrNotFound)
	}
	return invoice, nil
}

// Cancel voids a pending or failed invoice. Paid invoices are immutable.
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status.Terminal() {
		return fmt.Errorf("%w: invoice is %s", utils.ErrConflict, invoice.Status)
	}
	invoice.Status = db_models.InvoiceStatusCanceled
	if err := s.invoices.Update(ctx, invoice); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return nil
}
