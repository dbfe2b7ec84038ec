package services

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"memberly/internal/gateway"
	"memberly/internal/models/db_models"
	"memberly/internal/repositories"
)

// In-memory repositories backing the service tests. They copy values on the
// way in and out so a service mutating a returned struct without calling
// Update never leaks into the store.

type fakeMemberRepo struct {
	members map[uuid.UUID]*db_models.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: map[uuid.UUID]*db_models.Member{}}
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemberRepo) GetByEmail(_ context.Context, email string) (*db_models.Member, error) {
	for _, m := range f.members {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) Create(_ context.Context, member *db_models.Member) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	cp := *member
	f.members[member.ID] = &cp
	return nil
}

type fakeOrgRepo struct {
	orgs map[uuid.UUID]*db_models.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: map[uuid.UUID]*db_models.Organization{}}
}

func (f *fakeOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrgRepo) GetByCode(_ context.Context, code string) (*db_models.Organization, error) {
	for _, o := range f.orgs {
		if o.Code == code {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

type fakePlanRepo struct {
	plans map[uuid.UUID]*db_models.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[uuid.UUID]*db_models.Plan{}}
}

func (f *fakePlanRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlanRepo) GetByCode(_ context.Context, organizationID uuid.UUID, code string) (*db_models.Plan, error) {
	for _, p := range f.plans {
		if p.OrganizationID == organizationID && p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePlanRepo) ListByOrganization(_ context.Context, organizationID uuid.UUID, activeOnly bool) ([]db_models.Plan, error) {
	var out []db_models.Plan
	for _, p := range f.plans {
		if p.OrganizationID != organizationID {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakePlanRepo) Create(_ context.Context, plan *db_models.Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	cp := *plan
	f.plans[plan.ID] = &cp
	return nil
}

func (f *fakePlanRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := f.plans[id]
	if !ok {
		return fmt.Errorf("plan %s not found", id)
	}
	p.IsActive = false
	return nil
}

type fakeSubscriptionRepo struct {
	subs map[uuid.UUID]*db_models.Subscription
	// plans and members resolve the preloads the gorm repo does.
	plans   *fakePlanRepo
	members *fakeMemberRepo
}

func newFakeSubscriptionRepo(plans *fakePlanRepo, members *fakeMemberRepo) *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		subs:    map[uuid.UUID]*db_models.Subscription{},
		plans:   plans,
		members: members,
	}
}

func (f *fakeSubscriptionRepo) withPlan(sub *db_models.Subscription) *db_models.Subscription {
	cp := *sub
	if f.plans != nil {
		if p, ok := f.plans.plans[sub.PlanID]; ok {
			cp.Plan = *p
		}
	}
	if f.members != nil {
		if m, ok := f.members.members[sub.MemberID]; ok {
			cp.Member = *m
		}
	}
	return &cp
}

func (f *fakeSubscriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	s, ok := f.subs[id]
	if !ok {
		return nil, nil
	}
	return f.withPlan(s), nil
}

func (f *fakeSubscriptionRepo) Create(_ context.Context, sub *db_models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeSubscriptionRepo) Update(_ context.Context, sub *db_models.Subscription) error {
	if _, ok := f.subs[sub.ID]; !ok {
		return fmt.Errorf("subscription %s not found", sub.ID)
	}
	cp := *sub
	cp.Plan = db_models.Plan{}
	cp.Member = db_models.Member{}
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeSubscriptionRepo) FindLive(_ context.Context, memberID, planID uuid.UUID) (*db_models.Subscription, error) {
	for _, s := range f.subs {
		if s.MemberID != memberID || s.PlanID != planID {
			continue
		}
		switch s.Status {
		case db_models.SubStatusActive, db_models.SubStatusTrialing,
			db_models.SubStatusPending, db_models.SubStatusPaused:
			return f.withPlan(s), nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]db_models.Subscription, error) {
	var out []db_models.Subscription
	for _, s := range f.subs {
		if s.MemberID == memberID {
			out = append(out, *f.withPlan(s))
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) ListExpirable(_ context.Context, now int64, limit int) ([]db_models.Subscription, error) {
	var out []db_models.Subscription
	for _, s := range f.subs {
		if s.Status == db_models.SubStatusActive && s.CurrentPeriodEnd < now {
			out = append(out, *f.withPlan(s))
		}
	}
	return capSubs(out, limit), nil
}

func (f *fakeSubscriptionRepo) ListTrialEnded(_ context.Context, now int64, limit int) ([]db_models.Subscription, error) {
	var out []db_models.Subscription
	for _, s := range f.subs {
		if s.Status == db_models.SubStatusTrialing && s.TrialEnd != nil && *s.TrialEnd < now {
			out = append(out, *f.withPlan(s))
		}
	}
	return capSubs(out, limit), nil
}

func (f *fakeSubscriptionRepo) ListAutoRenewDue(_ context.Context, now int64, limit int) ([]db_models.Subscription, error) {
	var out []db_models.Subscription
	for _, s := range f.subs {
		if s.Status == db_models.SubStatusActive && s.AutoRenew && s.CurrentPeriodEnd <= now {
			out = append(out, *f.withPlan(s))
		}
	}
	return capSubs(out, limit), nil
}

func (f *fakeSubscriptionRepo) ListEndingSoon(_ context.Context, from, until int64, limit int) ([]db_models.Subscription, error) {
	var out []db_models.Subscription
	for _, s := range f.subs {
		if s.Status == db_models.SubStatusActive && !s.AutoRenew &&
			s.CurrentPeriodEnd >= from && s.CurrentPeriodEnd <= until {
			out = append(out, *f.withPlan(s))
		}
	}
	return capSubs(out, limit), nil
}

func capSubs(subs []db_models.Subscription, limit int) []db_models.Subscription {
	if limit > 0 && len(subs) > limit {
		return subs[:limit]
	}
	return subs
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*db_models.Invoice
	seq      map[string]int64
	members  *fakeMemberRepo
}

func newFakeInvoiceRepo(members *fakeMemberRepo) *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: map[uuid.UUID]*db_models.Invoice{},
		seq:      map[string]int64{},
		members:  members,
	}
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) Create(_ context.Context, invoice *db_models.Invoice) error {
	for _, existing := range f.invoices {
		if existing.SubscriptionID == invoice.SubscriptionID && existing.PeriodStart == invoice.PeriodStart {
			return fmt.Errorf("duplicate invoice for period")
		}
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	cp := *invoice
	f.invoices[invoice.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) Update(_ context.Context, invoice *db_models.Invoice) error {
	if _, ok := f.invoices[invoice.ID]; !ok {
		return fmt.Errorf("invoice %s not found", invoice.ID)
	}
	cp := *invoice
	cp.Member = db_models.Member{}
	cp.Subscription = db_models.Subscription{}
	f.invoices[invoice.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) FindByPeriod(_ context.Context, subscriptionID uuid.UUID, periodStart int64) (*db_models.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.SubscriptionID == subscriptionID && inv.PeriodStart == periodStart {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoiceRepo) ListOverdue(_ context.Context, now int64, limit int) ([]db_models.Invoice, error) {
	var out []db_models.Invoice
	for _, inv := range f.invoices {
		if (inv.Status == db_models.InvoiceStatusPending || inv.Status == db_models.InvoiceStatusFailed) &&
			inv.DueDate < now {
			cp := *inv
			if f.members != nil {
				if m, ok := f.members.members[inv.MemberID]; ok {
					cp.Member = *m
				}
			}
			out = append(out, cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeInvoiceRepo) NextInvoiceNumber(_ context.Context, organizationID uuid.UUID, orgCode string, year int) (string, error) {
	key := fmt.Sprintf("%s-%d", organizationID, year)
	f.seq[key]++
	return fmt.Sprintf("INV-%s-%d-%06d", orgCode, year, f.seq[key]), nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*db_models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*db_models.Payment{}}
}

func (f *fakePaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) GetByReference(_ context.Context, reference string) (*db_models.Payment, error) {
	for _, p := range f.payments {
		if p.ProviderReference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *db_models.Payment) error {
	for _, existing := range f.payments {
		if existing.ProviderReference == payment.ProviderReference {
			return fmt.Errorf("duplicate provider reference")
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	cp := *payment
	f.payments[payment.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) Update(_ context.Context, payment *db_models.Payment) error {
	if _, ok := f.payments[payment.ID]; !ok {
		return fmt.Errorf("payment %s not found", payment.ID)
	}
	cp := *payment
	cp.Invoice = db_models.Invoice{}
	cp.Member = db_models.Member{}
	f.payments[payment.ID] = &cp
	return nil
}

type fakeAuthRepo struct {
	auths map[uuid.UUID]*db_models.StoredAuthorization
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{auths: map[uuid.UUID]*db_models.StoredAuthorization{}}
}

func (f *fakeAuthRepo) GetByMember(_ context.Context, memberID uuid.UUID) (*db_models.StoredAuthorization, error) {
	a, ok := f.auths[memberID]
	if !ok || !a.Reusable {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAuthRepo) Upsert(_ context.Context, auth *db_models.StoredAuthorization) error {
	if auth.ID == uuid.Nil {
		auth.ID = uuid.New()
	}
	cp := *auth
	f.auths[auth.MemberID] = &cp
	return nil
}

func (f *fakeAuthRepo) Invalidate(_ context.Context, memberID uuid.UUID) error {
	if a, ok := f.auths[memberID]; ok {
		a.Reusable = false
	}
	return nil
}

// fakeTxManager runs the callback directly against the in-memory store.
// There is no rollback; tests asserting atomicity do so through invariants.
type fakeTxManager struct {
	store repositories.BillingStore
}

func (f *fakeTxManager) InTx(_ context.Context, fn func(store repositories.BillingStore) error) error {
	return fn(f.store)
}

type fakeGateway struct {
	initializeFunc func(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error)
	verifyFunc     func(ctx context.Context, reference string) (*gateway.ChargeResult, error)
	chargeFunc     func(ctx context.Context, req gateway.ChargeAuthorizationRequest) (*gateway.ChargeResult, error)
	verifySigFunc  func(payload []byte, signatureHeader string) bool
}

func (f *fakeGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	if f.initializeFunc != nil {
		return f.initializeFunc(ctx, req)
	}
	return &gateway.InitializeResult{
		AuthorizationURL: "https://checkout.example/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.ChargeResult, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, reference)
	}
	return &gateway.ChargeResult{Status: "success", Reference: reference}, nil
}

func (f *fakeGateway) ChargeAuthorization(ctx context.Context, req gateway.ChargeAuthorizationRequest) (*gateway.ChargeResult, error) {
	if f.chargeFunc != nil {
		return f.chargeFunc(ctx, req)
	}
	return &gateway.ChargeResult{Status: "success", Reference: req.Reference}, nil
}

func (f *fakeGateway) VerifyWebhookSignature(payload []byte, signatureHeader string) bool {
	if f.verifySigFunc != nil {
		return f.verifySigFunc(payload, signatureHeader)
	}
	return true
}

func (f *fakeGateway) ProviderName() string { return "paystack" }

type notified struct {
	recipient string
	template  NotificationTemplate
	data      map[string]string
}

type recordingNotifier struct {
	sent []notified
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, recipient string, template NotificationTemplate, data map[string]string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, notified{recipient: recipient, template: template, data: data})
	return nil
}

func (r *recordingNotifier) countOf(template NotificationTemplate) int {
	n := 0
	for _, s := range r.sent {
		if s.template == template {
			n++
		}
	}
	return n
}

// billingWorld wires the full set of fakes behind one seam so each test can
// reach into any layer.
type billingWorld struct {
	members  *fakeMemberRepo
	orgs     *fakeOrgRepo
	plans    *fakePlanRepo
	subs     *fakeSubscriptionRepo
	invoices *fakeInvoiceRepo
	payments *fakePaymentRepo
	auths    *fakeAuthRepo
	gw       *fakeGateway
	notifier *recordingNotifier
	txm      *fakeTxManager
}

func newBillingWorld() *billingWorld {
	members := newFakeMemberRepo()
	plans := newFakePlanRepo()
	w := &billingWorld{
		members:  members,
		orgs:     newFakeOrgRepo(),
		plans:    plans,
		subs:     newFakeSubscriptionRepo(plans, members),
		invoices: newFakeInvoiceRepo(members),
		payments: newFakePaymentRepo(),
		auths:    newFakeAuthRepo(),
		gw:       &fakeGateway{},
		notifier: &recordingNotifier{},
	}
	w.txm = &fakeTxManager{store: repositories.BillingStore{
		Subscriptions:  w.subs,
		Invoices:       w.invoices,
		Payments:       w.payments,
		Authorizations: w.auths,
		Members:        w.members,
	}}
	return w
}

func (w *billingWorld) seedOrg(code string) *db_models.Organization {
	org := &db_models.Organization{Name: "Test Org", Code: code, IsActive: true}
	org.ID = uuid.New()
	w.orgs.orgs[org.ID] = org
	return org
}

func (w *billingWorld) seedMember(orgID uuid.UUID, email string) *db_models.Member {
	member := &db_models.Member{
		OrganizationID: orgID,
		Email:          email,
		FullName:       "Test Member",
		PasswordHash:   "x",
		Role:           db_models.RoleMember,
		IsActive:       true,
	}
	member.ID = uuid.New()
	w.members.members[member.ID] = member
	return member
}

func (w *billingWorld) seedPlan(orgID uuid.UUID, code string, amount string, interval string, trialDays int32) *db_models.Plan {
	plan := &db_models.Plan{
		OrganizationID: orgID,
		Code:           code,
		Name:           "Plan " + code,
		Amount:         decimal.RequireFromString(amount),
		Currency:       "USD",
		Interval:       interval,
		IntervalCount:  1,
		TrialDays:      trialDays,
		IsActive:       true,
	}
	plan.ID = uuid.New()
	w.plans.plans[plan.ID] = plan
	return plan
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
