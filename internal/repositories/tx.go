package repositories

import (
	"context"

	"gorm.io/gorm"
)

// BillingStore bundles the repositories that participate in a payment
// reconciliation, all bound to the same transaction.
type BillingStore struct {
	Subscriptions  ISubscriptionRepository
	Invoices       IInvoiceRepository
	Payments       IPaymentRepository
	Authorizations IStoredAuthorizationRepository
	Members        IMemberRepository
}

func NewBillingStore(db *gorm.DB) BillingStore {
	return BillingStore{
		Subscriptions:  NewSubscriptionRepository(db),
		Invoices:       NewInvoiceRepository(db),
		Payments:       NewPaymentRepository(db),
		Authorizations: NewStoredAuthorizationRepository(db),
		Members:        NewMemberRepository(db),
	}
}

// ITxManager runs fn against a transaction-scoped BillingStore. The
// Payment -> Invoice -> Subscription cascade of a reconciliation commits or
// rolls back as one unit.
type ITxManager interface {
	InTx(ctx context.Context, fn func(store BillingStore) error) error
}

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) ITxManager {
	return &TxManager{db: db}
}

func (m *TxManager) InTx(ctx context.Context, fn func(store BillingStore) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewBillingStore(tx))
	})
}
