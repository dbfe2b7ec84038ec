package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberly/internal/gateway"
	"memberly/internal/models/db_models"
	"memberly/pkg/utils"
)

type chargeScenario struct {
	w       *billingWorld
	svc     IWebhookService
	sub     *db_models.Subscription
	invoice *db_models.Invoice
	payment *db_models.Payment
}

// seedChargeScenario builds a pending subscription waiting on its first
// invoice's payment, mirroring the state right after checkout begins.
func seedChargeScenario(t *testing.T, subStatus db_models.SubscriptionStatus) *chargeScenario {
	t.Helper()
	w := newBillingWorld()
	org := w.seedOrg("ACME")
	member := w.seedMember(org.ID, "a@acme.test")
	plan := w.seedPlan(org.ID, "pro", "25.00", utils.IntervalMonthly, 0)

	now := time.Now().UTC()
	periodStart := now.Unix()
	periodEnd := now.AddDate(0, 1, 0).Unix()

	sub := &db_models.Subscription{
		OrganizationID:     org.ID,
		MemberID:           member.ID,
		PlanID:             plan.ID,
		Status:             subStatus,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		AutoRenew:          true,
	}
	require.NoError(t, w.subs.Create(context.Background(), sub))

	invoice := &db_models.Invoice{
		OrganizationID: org.ID,
		SubscriptionID: sub.ID,
		MemberID:       member.ID,
		PlanID:         plan.ID,
		InvoiceNumber:  "INV-ACME-2026-000001",
		PlanName:       plan.Name,
		Amount:         decimal.RequireFromString("25.00"),
		Currency:       "USD",
		Status:         db_models.InvoiceStatusPending,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		DueDate:        periodEnd,
	}
	require.NoError(t, w.invoices.Create(context.Background(), invoice))

	payment := &db_models.Payment{
		OrganizationID:    org.ID,
		InvoiceID:         invoice.ID,
		MemberID:          member.ID,
		Amount:            invoice.Amount,
		Currency:          "USD",
		Status:            db_models.PaymentStatusPending,
		Provider:          "paystack",
		ProviderReference: "MB-test-ref",
		PayerEmail:        member.Email,
	}
	require.NoError(t, w.payments.Create(context.Background(), payment))

	svc := NewWebhookService(w.gw, w.txm, w.notifier, testLogger())
	return &chargeScenario{w: w, svc: svc, sub: sub, invoice: invoice, payment: payment}
}

func successResult(reference string) *gateway.ChargeResult {
	return &gateway.ChargeResult{
		Status:            "success",
		Reference:         reference,
		AmountMinor:       2500,
		Currency:          "USD",
		AuthorizationCode: "AUTH_abc",
		CardType:          "visa",
		Last4:             "4081",
		Bank:              "Test Bank",
		Reusable:          true,
	}
}

func TestChargeSuccessActivatesSubscription(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)
	ctx := context.Background()

	err := sc.svc.ApplyChargeResult(ctx, gateway.EventChargeSuccess, successResult("MB-test-ref"))
	require.NoError(t, err)

	payment, _ := sc.w.payments.GetByReference(ctx, "MB-test-ref")
	assert.Equal(t, db_models.PaymentStatusSuccess, payment.Status)
	assert.NotNil(t, payment.PaidAt)

	invoice, _ := sc.w.invoices.GetByID(ctx, sc.invoice.ID)
	assert.Equal(t, db_models.InvoiceStatusPaid, invoice.Status)
	assert.NotNil(t, invoice.PaidAt)

	sub, _ := sc.w.subs.GetByID(ctx, sc.sub.ID)
	assert.Equal(t, db_models.SubStatusActive, sub.Status)
	assert.Equal(t, 0, sub.RenewFailures)

	auth, _ := sc.w.auths.GetByMember(ctx, sc.sub.MemberID)
	require.NotNil(t, auth)
	assert.Equal(t, "AUTH_abc", auth.AuthorizationCode)
	assert.Equal(t, "4081", auth.Last4)

	assert.Equal(t, 1, sc.w.notifier.countOf(TemplatePaymentSuccess))
}

func TestChargeSuccessIsIdempotentOnReplay(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)
	ctx := context.Background()

	require.NoError(t, sc.svc.ApplyChargeResult(ctx, gateway.EventChargeSuccess, successResult("MB-test-ref")))
	firstPaidAt := func() int64 {
		p, _ := sc.w.payments.GetByReference(ctx, "MB-test-ref")
		return *p.PaidAt
	}()

	// Provider redelivers the same event.
	require.NoError(t, sc.svc.ApplyChargeResult(ctx, gateway.EventChargeSuccess, successResult("MB-test-ref")))

	payment, _ := sc.w.payments.GetByReference(ctx, "MB-test-ref")
	assert.Equal(t, firstPaidAt, *payment.PaidAt)
	assert.Equal(t, 1, sc.w.notifier.countOf(TemplatePaymentSuccess), "replay must not re-notify")
}

func TestChargeFailureMarksCascadeFailed(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)
	ctx := context.Background()

	res := &gateway.ChargeResult{
		Status:          "failed",
		Reference:       "MB-test-ref",
		GatewayResponse: "Insufficient funds",
	}
	require.NoError(t, sc.svc.ApplyChargeResult(ctx, gateway.EventChargeFailed, res))

	payment, _ := sc.w.payments.GetByReference(ctx, "MB-test-ref")
	assert.Equal(t, db_models.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)
	assert.Equal(t, "Insufficient funds", *payment.FailureReason)

	invoice, _ := sc.w.invoices.GetByID(ctx, sc.invoice.ID)
	assert.Equal(t, db_models.InvoiceStatusFailed, invoice.Status)

	sub, _ := sc.w.subs.GetByID(ctx, sc.sub.ID)
	assert.Equal(t, db_models.SubStatusFailed, sub.Status)

	assert.Equal(t, 1, sc.w.notifier.countOf(TemplatePaymentFailed))
}

func TestFailedSubscriptionRecoversOnLaterSuccess(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusFailed)
	ctx := context.Background()

	require.NoError(t, sc.svc.ApplyChargeResult(ctx, gateway.EventChargeSuccess, successResult("MB-test-ref")))

	sub, _ := sc.w.subs.GetByID(ctx, sc.sub.ID)
	assert.Equal(t, db_models.SubStatusActive, sub.Status)
}

func TestRenewalPaymentAdvancesPeriod(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusActive)
	ctx := context.Background()

	// Renewal invoice: its period starts where the current one ends.
	renewStart := sc.sub.CurrentPeriodEnd
	renewEnd := time.Unix(renewStart, 0).UTC().AddDate(0, 1, 0).Unix()
	renewal := &db_models.Invoice{
		OrganizationID: sc.invoice.OrganizationID,
		SubscriptionID: sc.sub.ID,
		MemberID:       sc.sub.MemberID,
		PlanID:         sc.sub.PlanID,
		InvoiceNumber:  "INV-ACME-2026-000002",
		PlanName:       sc.invoice.PlanName,
		Amount:         sc.invoice.Amount,
		Currency:       "USD",
		Status:         db_models.InvoiceStatusPending,
		PeriodStart:    renewStart,
		PeriodEnd:      renewEnd,
		DueDate:        renewEnd,
	}
	require.NoError(t, sc.w.invoices.Create(ctx, renewal))

	payment := &db_models.Payment{
		OrganizationID:    sc.invoice.OrganizationID,
		InvoiceID:         renewal.ID,
		MemberID:          sc.sub.MemberID,
		Amount:            renewal.Amount,
		Currency:          "USD",
		Status:            db_models.PaymentStatusPending,
		Provider:          "paystack",
		ProviderReference: "MB-renewal-ref",
		PayerEmail:        "a@acme.test",
	}
	require.NoError(t, sc.w.payments.Create(ctx, payment))

	require.NoError(t, sc.svc.ApplyChargeResult(ctx, gateway.EventChargeSuccess, successResult("MB-renewal-ref")))

	sub, _ := sc.w.subs.GetByID(ctx, sc.sub.ID)
	assert.Equal(t, renewStart, sub.CurrentPeriodStart)
	assert.Equal(t, renewEnd, sub.CurrentPeriodEnd)
}

func TestUnknownReferenceIsNeverFabricated(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)

	err := sc.svc.ApplyChargeResult(context.Background(), gateway.EventChargeSuccess, successResult("MB-no-such-ref"))
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Equal(t, 1, len(sc.w.payments.payments), "no payment row may be created")
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)
	sc.w.gw.verifySigFunc = func(payload []byte, signatureHeader string) bool { return false }

	body := []byte(`{"event":"charge.success","data":{"status":"success","reference":"MB-test-ref"}}`)
	err := sc.svc.HandleEvent(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, utils.ErrInvalidSignature)

	payment, _ := sc.w.payments.GetByReference(context.Background(), "MB-test-ref")
	assert.Equal(t, db_models.PaymentStatusPending, payment.Status, "rejected events must not touch the ledger")
}

func TestHandleEventIgnoresUnrelatedEventTypes(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)

	body := []byte(`{"event":"transfer.success","data":{"reference":"MB-test-ref"}}`)
	require.NoError(t, sc.svc.HandleEvent(context.Background(), body, "sig"))

	payment, _ := sc.w.payments.GetByReference(context.Background(), "MB-test-ref")
	assert.Equal(t, db_models.PaymentStatusPending, payment.Status)
}

func TestNotificationFailureDoesNotFailReconciliation(t *testing.T) {
	sc := seedChargeScenario(t, db_models.SubStatusPending)
	sc.w.notifier.err = assert.AnError

	err := sc.svc.ApplyChargeResult(context.Background(), gateway.EventChargeSuccess, successResult("MB-test-ref"))
	require.NoError(t, err)

	payment, _ := sc.w.payments.GetByReference(context.Background(), "MB-test-ref")
	assert.Equal(t, db_models.PaymentStatusSuccess, payment.Status)
}
