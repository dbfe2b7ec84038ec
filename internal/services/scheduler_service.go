package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"memberly/internal/gateway"
	"memberly/internal/models/db_models"
	"memberly/internal/repositories"
)

// BillingConfig tunes the sweep. MaxRenewFailures is the consecutive-failure
// budget before auto-renew is disabled; ExpiryGrace is how long a lapsed
// period survives before the expire pass ends it.
type BillingConfig struct {
	SweepSchedule    string
	BatchSize        int
	MaxRenewFailures int
	ChargeTimeout    time.Duration
	ExpiryGrace      time.Duration
}

func (c BillingConfig) WithDefaults() BillingConfig {
	if c.SweepSchedule == "" {
		c.SweepSchedule = "*/15 * * * *"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 200
	}
	if c.MaxRenewFailures <= 0 {
		c.MaxRenewFailures = 3
	}
	if c.ChargeTimeout <= 0 {
		c.ChargeTimeout = 30 * time.Second
	}
	if c.ExpiryGrace <= 0 {
		c.ExpiryGrace = 72 * time.Hour
	}
	return c
}

type ISchedulerService interface {
	// RunSweep executes the four billing passes. Each item failure is
	// isolated: logged, skipped, picked up again next sweep.
	RunSweep(ctx context.Context) error
}

type SchedulerService struct {
	subs       repositories.ISubscriptionRepository
	invoices   repositories.IInvoiceRepository
	members    repositories.IMemberRepository
	auths      repositories.IStoredAuthorizationRepository
	payments   repositories.IPaymentRepository
	invoiceSvc IInvoiceService
	reconciler IWebhookService
	gw         gateway.Gateway
	notifier   INotificationService
	cfg        BillingConfig
	log        *logrus.Logger
}

func NewSchedulerService(
	subs repositories.ISubscriptionRepository,
	invoices repositories.IInvoiceRepository,
	members repositories.IMemberRepository,
	auths repositories.IStoredAuthorizationRepository,
	payments repositories.IPaymentRepository,
	invoiceSvc IInvoiceService,
	reconciler IWebhookService,
	gw gateway.Gateway,
	notifier INotificationService,
	cfg BillingConfig,
	log *logrus.Logger,
) ISchedulerService {
	return &SchedulerService{
		subs:       subs,
		invoices:   invoices,
		members:    members,
		auths:      auths,
		payments:   payments,
		invoiceSvc: invoiceSvc,
		reconciler: reconciler,
		gw:         gw,
		notifier:   notifier,
		cfg:        cfg.WithDefaults(),
		log:        log,
	}
}

func (s *SchedulerService) RunSweep(ctx context.Context) error {
	started := time.Now()
	s.runAutoRenewPass(ctx)
	s.runTrialConversionPass(ctx)
	s.runExpirePass(ctx)
	s.runOverduePass(ctx)
	s.log.WithField("duration", time.Since(started).String()).Info("billing sweep finished")
	return ctx.Err()
}

// ---------- auto-renew ----------

func (s *SchedulerService) runAutoRenewPass(ctx context.Context) {
	now := time.Now().Unix()
	due, err := s.subs.ListAutoRenewDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.log.WithError(err).Error("auto-renew pass: list failed")
		return
	}
	for i := range due {
		if err := s.renewOne(ctx, due[i].ID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"pass":            "auto_renew",
				"subscription_id": due[i].ID,
			}).Warn("renewal attempt failed; left for next sweep")
		}
	}
}

func (s *SchedulerService) renewOne(ctx context.Context, subID uuid.UUID) error {
	// Re-read so a cancel or pause since the listing preempts the charge.
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return err
	}
	if sub == nil || sub.Status != db_models.SubStatusActive || !sub.AutoRenew {
		return nil
	}
	plan := &sub.Plan

	member, err := s.members.GetByID(ctx, sub.MemberID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("member %s not found for renewal", sub.MemberID)
	}

	auth, err := s.auths.GetByMember(ctx, sub.MemberID)
	if err != nil {
		return err
	}
	if auth == nil {
		return s.recordRenewFailure(ctx, sub, member, "no stored authorization")
	}

	invoice, err := s.ensureInvoice(ctx, sub, plan, sub.CurrentPeriodEnd)
	if err != nil {
		return err
	}
	switch invoice.Status {
	case db_models.InvoiceStatusPaid, db_models.InvoiceStatusCanceled:
		return nil
	}

	payment := &db_models.Payment{
		OrganizationID:    sub.OrganizationID,
		InvoiceID:         invoice.ID,
		MemberID:          sub.MemberID,
		Amount:            invoice.Amount,
		Currency:          invoice.Currency,
		Status:            db_models.PaymentStatusPending,
		Provider:          s.gw.ProviderName(),
		ProviderReference: NewPaymentReference(),
		PayerEmail:        member.Email,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return err
	}

	// One slow or hung charge must not stall the rest of the batch.
	chargeCtx, cancel := context.WithTimeout(ctx, s.cfg.ChargeTimeout)
	defer cancel()

	res, err := s.gw.ChargeAuthorization(chargeCtx, gateway.ChargeAuthorizationRequest{
		AuthorizationCode: auth.AuthorizationCode,
		Email:             member.Email,
		AmountMinor:       MinorUnits(invoice.Amount),
		Currency:          invoice.Currency,
		Reference:         payment.ProviderReference,
		Metadata: map[string]any{
			"invoice_number": invoice.InvoiceNumber,
			"renewal":        true,
		},
	})
	if err != nil {
		reason := err.Error()
		payment.Status = db_models.PaymentStatusFailed
		payment.FailureReason = &reason
		if uerr := s.payments.Update(ctx, payment); uerr != nil {
			s.log.WithError(uerr).Error("failed to mark renewal payment failed")
		}
		return s.recordRenewFailure(ctx, sub, member, reason)
	}

	if !res.Definitive() {
		// Still settling on the provider side; the webhook (or a later
		// verify) reconciles it. Not a consecutive failure.
		s.log.WithFields(logrus.Fields{
			"subscription_id": sub.ID,
			"reference":       payment.ProviderReference,
			"status":          res.Status,
		}).Info("renewal charge awaiting settlement")
		return nil
	}

	eventType := gateway.EventChargeFailed
	if res.Succeeded() {
		eventType = gateway.EventChargeSuccess
	}
	if err := s.reconciler.ApplyChargeResult(ctx, eventType, res); err != nil {
		return err
	}
	if !res.Succeeded() {
		return s.recordRenewFailure(ctx, sub, member, res.GatewayResponse)
	}

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"invoice_number":  invoice.InvoiceNumber,
		"reference":       payment.ProviderReference,
	}).Info("subscription renewed")
	return nil
}

// recordRenewFailure bumps the consecutive-failure counter and, once the
// budget is spent, disables auto-renew and tells the member exactly once.
func (s *SchedulerService) recordRenewFailure(ctx context.Context, sub *db_models.Subscription, member *db_models.Member, reason string) error {
	sub.RenewFailures++
	disabled := false
	if sub.RenewFailures >= s.cfg.MaxRenewFailures && sub.AutoRenew {
		sub.AutoRenew = false
		disabled = true
	}
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"failures":        sub.RenewFailures,
		"reason":          reason,
	}).Warn("auto-renew charge failed")

	if disabled {
		data := map[string]string{
			"plan_name": sub.Plan.Name,
			"failures":  strconv.Itoa(sub.RenewFailures),
		}
		if err := s.notifier.Notify(ctx, member.Email, TemplateAutoRenewDisabled, data); err != nil {
			s.log.WithError(err).Warn("auto-renew-disabled notification failed")
		}
	}
	return nil
}

func (s *SchedulerService) ensureInvoice(ctx context.Context, sub *db_models.Subscription, plan *db_models.Plan, periodStart int64) (*db_models.Invoice, error) {
	existing, err := s.invoices.FindByPeriod(ctx, sub.ID, periodStart)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.invoiceSvc.GenerateForPeriod(ctx, sub, plan, periodStart)
}

// ---------- trial conversion ----------

func (s *SchedulerService) runTrialConversionPass(ctx context.Context) {
	now := time.Now().Unix()
	ended, err := s.subs.ListTrialEnded(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.log.WithError(err).Error("trial pass: list failed")
		return
	}
	for i := range ended {
		sub := &ended[i]
		if err := s.convertTrial(ctx, sub); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"pass":            "trial_conversion",
				"subscription_id": sub.ID,
			}).Warn("trial conversion failed; left for next sweep")
		}
	}
}

func (s *SchedulerService) convertTrial(ctx context.Context, sub *db_models.Subscription) error {
	if sub.Status != db_models.SubStatusTrialing || sub.TrialEnd == nil {
		return nil
	}
	periodStart := *sub.TrialEnd
	invoice, err := s.ensureInvoice(ctx, sub, &sub.Plan, periodStart)
	if err != nil {
		return err
	}

	sub.Status = db_models.SubStatusActive
	sub.CurrentPeriodStart = invoice.PeriodStart
	sub.CurrentPeriodEnd = invoice.PeriodEnd
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"invoice_number":  invoice.InvoiceNumber,
	}).Info("trial converted")
	return nil
}

// ---------- expiry ----------

func (s *SchedulerService) runExpirePass(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ExpiryGrace).Unix()
	lapsed, err := s.subs.ListExpirable(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		s.log.WithError(err).Error("expire pass: list failed")
		return
	}
	now := time.Now().Unix()
	for i := range lapsed {
		sub := &lapsed[i]
		sub.Status = db_models.SubStatusExpired
		sub.EndedAt = &now
		if err := s.subs.Update(ctx, sub); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"pass":            "expire",
				"subscription_id": sub.ID,
			}).Warn("expire failed; left for next sweep")
			continue
		}
		s.log.WithField("subscription_id", sub.ID).Info("subscription expired")

		member, err := s.members.GetByID(ctx, sub.MemberID)
		if err != nil || member == nil {
			continue
		}
		data := map[string]string{"plan_name": sub.Plan.Name}
		if err := s.notifier.Notify(ctx, member.Email, TemplateSubscriptionExpired, data); err != nil {
			s.log.WithError(err).Warn("expiry notification failed")
		}
	}
}

// ---------- overdue detection ----------

func (s *SchedulerService) runOverduePass(ctx context.Context) {
	now := time.Now().Unix()
	overdue, err := s.invoices.ListOverdue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.log.WithError(err).Error("overdue pass: list failed")
		return
	}
	for i := range overdue {
		invoice := &overdue[i]
		if metadataFlag(invoice.Metadata, "overdue_notified") {
			continue
		}
		data := map[string]string{
			"invoice_number": invoice.InvoiceNumber,
			"amount":         invoice.Amount.StringFixed(2),
			"currency":       invoice.Currency,
		}
		if invoice.Member.Email != "" {
			if err := s.notifier.Notify(ctx, invoice.Member.Email, TemplateInvoiceOverdue, data); err != nil {
				s.log.WithError(err).WithField("invoice_number", invoice.InvoiceNumber).
					Warn("overdue notification failed")
				continue
			}
		}
		invoice.Metadata = setMetadataFlag(invoice.Metadata, "overdue_notified")
		if err := s.invoices.Update(ctx, invoice); err != nil {
			s.log.WithError(err).WithField("invoice_number", invoice.InvoiceNumber).
				Warn("failed to flag overdue invoice")
		}
	}

	// Expiry warnings for subscriptions lapsing inside the grace window.
	ending, err := s.subs.ListEndingSoon(ctx, now, time.Now().Add(s.cfg.ExpiryGrace).Unix(), s.cfg.BatchSize)
	if err != nil {
		s.log.WithError(err).Error("overdue pass: ending-soon list failed")
		return
	}
	for i := range ending {
		sub := &ending[i]
		if metadataFlag(sub.Metadata, "expiry_warned") {
			continue
		}
		if sub.Member.Email == "" {
			continue
		}
		data := map[string]string{
			"plan_name":  sub.Plan.Name,
			"period_end": time.Unix(sub.CurrentPeriodEnd, 0).UTC().Format("2006-01-02"),
		}
		if err := s.notifier.Notify(ctx, sub.Member.Email, TemplateSubscriptionExpiring, data); err != nil {
			s.log.WithError(err).Warn("expiry warning failed")
			continue
		}
		sub.Metadata = setMetadataFlag(sub.Metadata, "expiry_warned")
		if err := s.subs.Update(ctx, sub); err != nil {
			s.log.WithError(err).Warn("failed to flag expiry warning")
		}
	}
}

// ---------- helpers ----------

func metadataFlag(meta datatypes.JSON, key string) bool {
	if len(meta) == 0 {
		return false
	}
	var m map[string]any
	if err := json.Unmarshal(meta, &m); err != nil {
		return false
	}
	v, ok := m[key].(bool)
	return ok && v
}

func setMetadataFlag(meta datatypes.JSON, key string) datatypes.JSON {
	m := map[string]any{}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &m)
	}
	m[key] = true
	out, _ := json.Marshal(m)
	return datatypes.JSON(out)
}
