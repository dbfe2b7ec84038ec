package db_models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Plan is an organization-scoped pricing template. Pricing fields are never
// edited once subscriptions reference the plan; plans are only deactivated.
type Plan struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index;uniqueIndex:idx_plans_org_code"`
	Code           string    `gorm:"uniqueIndex:idx_plans_org_code"` // e.g. "basic", "pro_monthly"
	Name           string
	Description    *string
	Amount         decimal.Decimal `gorm:"type:numeric(20,2)"`
	Currency       string          `gorm:"size:3"` // ISO 4217
	Interval       string          `gorm:"size:10"`
	IntervalCount  int             `gorm:"default:1"`
	TrialDays      int32           `gorm:"default:0"`
	IsActive       bool            `gorm:"default:true"`

	Features pq.StringArray `gorm:"type:text[]"`

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
