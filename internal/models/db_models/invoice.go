package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusFailed   InvoiceStatus = "failed"
	InvoiceStatusCanceled InvoiceStatus = "canceled"
)

// Invoice is one billing obligation for a subscription period. PlanName,
// Amount and Currency are snapshots taken at generation time so later plan
// edits never alter billing history. The (subscription, period_start) unique
// index enforces one invoice per period.
type Invoice struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index;uniqueIndex:idx_invoices_org_number"`
	SubscriptionID uuid.UUID `gorm:"index;uniqueIndex:idx_invoices_sub_period"`
	MemberID       uuid.UUID `gorm:"index"`
	PlanID         uuid.UUID `gorm:"index"`

	InvoiceNumber string          `gorm:"uniqueIndex:idx_invoices_org_number"`
	PlanName      string
	Amount        decimal.Decimal `gorm:"type:numeric(20,2)"`
	Currency      string          `gorm:"size:3"`
	Status        InvoiceStatus   `gorm:"size:16;index"`

	PeriodStart int64 `gorm:"uniqueIndex:idx_invoices_sub_period"`
	PeriodEnd   int64
	DueDate     int64 `gorm:"index"`
	PaidAt      *int64

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Subscription Subscription `gorm:"foreignKey:SubscriptionID"`
	Member       Member       `gorm:"foreignKey:MemberID"`
}

func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCanceled
}
