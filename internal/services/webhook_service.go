package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"memberly/internal/gateway"
	"memberly/internal/models/db_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type IWebhookService interface {
	// HandleEvent verifies and applies one provider webhook delivery.
	// The signature is checked over the raw, unparsed body.
	HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) error
	// ApplyChargeResult reconciles a normalized gateway outcome against the
	// ledger. Replays for a terminal payment are a no-op.
	ApplyChargeResult(ctx context.Context, eventType string, res *gateway.ChargeResult) error
}

type WebhookService struct {
	gw       gateway.Gateway
	txm      repositories.ITxManager
	notifier INotificationService
	log      *logrus.Logger
}

func NewWebhookService(
	gw gateway.Gateway,
	txm repositories.ITxManager,
	notifier INotificationService,
	log *logrus.Logger,
) IWebhookService {
	return &WebhookService{gw: gw, txm: txm, notifier: notifier, log: log}
}

func (s *WebhookService) HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if !s.gw.VerifyWebhookSignature(rawBody, signatureHeader) {
		s.log.WithField("security_event", true).Warn("webhook signature mismatch")
		return utils.ErrInvalidSignature
	}

	eventType, res, err := gateway.ParseWebhookEvent(rawBody)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrValidation, err)
	}

	switch eventType {
	case gateway.EventChargeSuccess, gateway.EventChargeFailed:
		return s.ApplyChargeResult(ctx, eventType, res)
	default:
		// Providers send event types we have no ledger interest in.
		s.log.WithField("event", eventType).Debug("ignoring webhook event")
		return nil
	}
}

type reconcileOutcome struct {
	applied    bool
	payment    *db_models.Payment
	invoice    *db_models.Invoice
	planName   string
	notifyTmpl NotificationTemplate
	recipient  string
}

func (s *WebhookService) ApplyChargeResult(ctx context.Context, eventType string, res *gateway.ChargeResult) error {
	var out reconcileOutcome

	err := s.txm.InTx(ctx, func(store repositories.BillingStore) error {
		payment, err := store.Payments.GetByReference(ctx, res.Reference)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if payment == nil {
			// Never fabricate a payment for an unknown reference.
			return fmt.Errorf("%w: payment reference %s", utils.ErrNotFound, res.Reference)
		}
		if payment.Status.Terminal() {
			// Replayed delivery; everything already applied.
			return nil
		}

		invoice, err := store.Invoices.GetByID(ctx, payment.InvoiceID)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if invoice == nil {
			return fmt.Errorf("%w: invoice for payment %s", utils.ErrNotFound, res.Reference)
		}
		sub, err := store.Subscriptions.GetByID(ctx, invoice.SubscriptionID)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if sub == nil {
			return fmt.Errorf("%w: subscription for invoice %s", utils.ErrNotFound, invoice.InvoiceNumber)
		}

		now := time.Now().Unix()
		if len(res.Raw) > 0 {
			payment.RawResponse = datatypes.JSON(res.Raw)
		}

		success := eventType == gateway.EventChargeSuccess && res.Succeeded()
		if success {
			payment.Status = db_models.PaymentStatusSuccess
			payment.PaidAt = &now
			if err := store.Payments.Update(ctx, payment); err != nil {
				return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
			}

			if !invoice.Status.Terminal() {
				invoice.Status = db_models.InvoiceStatusPaid
				invoice.PaidAt = &now
				if err := store.Invoices.Update(ctx, invoice); err != nil {
					return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
				}
			}

			switch sub.Status {
			case db_models.SubStatusPending, db_models.SubStatusFailed:
				sub.Status = db_models.SubStatusActive
			}
			// A paid renewal invoice advances the billing period.
			if invoice.PeriodStart == sub.CurrentPeriodEnd {
				sub.CurrentPeriodStart = invoice.PeriodStart
				sub.CurrentPeriodEnd = invoice.PeriodEnd
			}
			sub.RenewFailures = 0
			if err := store.Subscriptions.Update(ctx, sub); err != nil {
				return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
			}

			if res.AuthorizationCode != "" && res.Reusable {
				auth := &db_models.StoredAuthorization{
					MemberID:          payment.MemberID,
					Provider:          payment.Provider,
					AuthorizationCode: res.AuthorizationCode,
					CardType:          res.CardType,
					Last4:             res.Last4,
					Bank:              res.Bank,
					Reusable:          true,
				}
				if err := store.Authorizations.Upsert(ctx, auth); err != nil {
					return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
				}
			}
			out.notifyTmpl = TemplatePaymentSuccess
		} else {
			payment.Status = db_models.PaymentStatusFailed
			if res.GatewayResponse != "" {
				reason := res.GatewayResponse
				payment.FailureReason = &reason
			}
			if err := store.Payments.Update(ctx, payment); err != nil {
				return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
			}

			if !invoice.Status.Terminal() {
				invoice.Status = db_models.InvoiceStatusFailed
				if err := store.Invoices.Update(ctx, invoice); err != nil {
					return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
				}
			}

			// A provisional subscription must not stay pending forever.
			if sub.Status == db_models.SubStatusPending {
				sub.Status = db_models.SubStatusFailed
				if err := store.Subscriptions.Update(ctx, sub); err != nil {
					return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
				}
			}
			out.notifyTmpl = TemplatePaymentFailed
		}

		out.applied = true
		out.payment = payment
		out.invoice = invoice
		out.planName = invoice.PlanName
		out.recipient = payment.PayerEmail
		return nil
	})
	if err != nil {
		return err
	}

	if out.applied {
		s.log.WithFields(logrus.Fields{
			"reference": res.Reference,
			"event":     eventType,
			"payment":   out.payment.Status,
			"invoice":   out.invoice.Status,
		}).Info("payment reconciled")
		s.dispatchNotification(ctx, out)
	}
	return nil
}

// Notifications go out after the transaction commits; a delivery failure
// never rolls back ledger state.
func (s *WebhookService) dispatchNotification(ctx context.Context, out reconcileOutcome) {
	if out.recipient == "" {
		return
	}
	data := map[string]string{
		"invoice_number": out.invoice.InvoiceNumber,
		"amount":         out.payment.Amount.StringFixed(2),
		"currency":       out.payment.Currency,
		"plan_name":      out.planName,
	}
	if err := s.notifier.Notify(ctx, out.recipient, out.notifyTmpl, data); err != nil {
		s.log.WithError(err).WithField("template", out.notifyTmpl).Warn("notification dispatch failed")
	}
}
