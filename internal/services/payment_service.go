package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"memberly/internal/gateway"
	"memberly/internal/models/db_models"
	"memberly/internal/models/response_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type IPaymentService interface {
	// InitializeCheckout creates a pending payment attempt for the invoice
	// and returns the gateway's hosted payment page URL.
	InitializeCheckout(ctx context.Context, memberID, invoiceID uuid.UUID) (*response_models.CheckoutResponse, error)
	// VerifyCheckout polls the gateway for the outcome of a reference and
	// reconciles it. Idempotent; callers may invoke it repeatedly.
	VerifyCheckout(ctx context.Context, reference string) (*response_models.VerifyResponse, error)
}

type PaymentService struct {
	payments   repositories.IPaymentRepository
	invoices   repositories.IInvoiceRepository
	members    repositories.IMemberRepository
	gw         gateway.Gateway
	reconciler IWebhookService
	log        *logrus.Logger
}

func NewPaymentService(
	payments repositories.IPaymentRepository,
	invoices repositories.IInvoiceRepository,
	members repositories.IMemberRepository,
	gw gateway.Gateway,
	reconciler IWebhookService,
	log *logrus.Logger,
) IPaymentService {
	return &PaymentService{
		payments:   payments,
		invoices:   invoices,
		members:    members,
		gw:         gw,
		reconciler: reconciler,
		log:        log,
	}
}

// NewPaymentReference builds a provider reference. Uniqueness is enforced by
// the payments unique index, not by this format.
func NewPaymentReference() string {
	return "MB-" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// MinorUnits converts a 2-decimal ledger amount into the integer
// minor-currency-units the gateway expects.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}

func (s *PaymentService) InitializeCheckout(ctx context.Context, memberID, invoiceID uuid.UUID) (*response_models.CheckoutResponse, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if invoice == nil || invoice.MemberID != memberID {
		return nil, fmt.Errorf("%w: invoice", utils.ErrNotFound)
	}
	if invoice.Status.Terminal() {
		return nil, fmt.Errorf("%w: invoice is %s", utils.ErrConflict, invoice.Status)
	}

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: member", utils.ErrNotFound)
	}

	payment := &db_models.Payment{
		OrganizationID:    invoice.OrganizationID,
		InvoiceID:         invoice.ID,
		MemberID:          memberID,
		Amount:            invoice.Amount,
		Currency:          invoice.Currency,
		Status:            db_models.PaymentStatusPending,
		Provider:          s.gw.ProviderName(),
		ProviderReference: NewPaymentReference(),
		PayerEmail:        member.Email,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	res, err := s.gw.Initialize(ctx, gateway.InitializeRequest{
		Email:       member.Email,
		AmountMinor: MinorUnits(invoice.Amount),
		Currency:    invoice.Currency,
		Reference:   payment.ProviderReference,
		Metadata: map[string]any{
			"invoice_id":     invoice.ID.String(),
			"invoice_number": invoice.InvoiceNumber,
		},
	})
	if err != nil {
		reason := err.Error()
		payment.Status = db_models.PaymentStatusFailed
		payment.FailureReason = &reason
		if uerr := s.payments.Update(ctx, payment); uerr != nil {
			s.log.WithError(uerr).Error("failed to mark payment failed after initialize error")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"reference":      payment.ProviderReference,
		"invoice_number": invoice.InvoiceNumber,
	}).Info("checkout initialized")

	return &response_models.CheckoutResponse{
		Reference:        payment.ProviderReference,
		AuthorizationURL: res.AuthorizationURL,
		Amount:           invoice.Amount.StringFixed(2),
		Currency:         invoice.Currency,
		Provider:         s.gw.ProviderName(),
	}, nil
}

func (s *PaymentService) VerifyCheckout(ctx context.Context, reference string) (*response_models.VerifyResponse, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", utils.ErrValidation)
	}

	res, err := s.gw.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if res.Definitive() {
		eventType := gateway.EventChargeFailed
		if res.Succeeded() {
			eventType = gateway.EventChargeSuccess
		}
		if err := s.reconciler.ApplyChargeResult(ctx, eventType, res); err != nil {
			return nil, err
		}
	} else {
		// The payer may still be on the checkout page. Reconciling now would
		// terminalize the payment and the real outcome could never land.
		s.log.WithFields(logrus.Fields{
			"reference": reference,
			"status":    res.Status,
		}).Info("verify outcome not definitive yet")
	}

	payment, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: payment", utils.ErrNotFound)
	}
	invoice, err := s.invoices.GetByID(ctx, payment.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	invoiceStatus := ""
	if invoice != nil {
		invoiceStatus = string(invoice.Status)
	}

	return &response_models.VerifyResponse{
		Reference:     reference,
		GatewayStatus: res.Status,
		PaymentStatus: string(payment.Status),
		InvoiceStatus: invoiceStatus,
	}, nil
}
