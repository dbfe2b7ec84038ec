package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Terminal payments are never mutated again; replayed webhooks for them are
// acknowledged without side effects.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// Payment is one attempt to collect an invoice's amount. ProviderReference is
// the idempotency key shared with the gateway: webhooks and verify calls
// match on it, and the unique index keeps concurrent attempts apart.
type Payment struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index"`
	InvoiceID      uuid.UUID `gorm:"index"`
	MemberID       uuid.UUID `gorm:"index"`

	Amount   decimal.Decimal `gorm:"type:numeric(20,2)"`
	Currency string          `gorm:"size:3"`
	Status   PaymentStatus   `gorm:"size:16;index"`

	Provider          string `gorm:"index"`
	ProviderReference string `gorm:"uniqueIndex"`
	PayerEmail        string
	FailureReason     *string
	PaidAt            *int64

	RawResponse datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Invoice Invoice `gorm:"foreignKey:InvoiceID"`
	Member  Member  `gorm:"foreignKey:MemberID"`
}
