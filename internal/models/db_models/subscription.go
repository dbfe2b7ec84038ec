package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	// SubStatusPending is the provisional state between subscribe and the
	// first successful payment.
	SubStatusPending  SubscriptionStatus = "pending"
	SubStatusTrialing SubscriptionStatus = "trialing"
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusPaused   SubscriptionStatus = "paused"
	SubStatusCanceled SubscriptionStatus = "canceled"
	SubStatusExpired  SubscriptionStatus = "expired"
	SubStatusFailed   SubscriptionStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubStatusCanceled || s == SubStatusExpired
}

type Subscription struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index"`
	MemberID       uuid.UUID `gorm:"index"`
	PlanID         uuid.UUID `gorm:"index"`

	Status             SubscriptionStatus `gorm:"size:16;index"`
	CurrentPeriodStart int64              `gorm:"not null"`
	CurrentPeriodEnd   int64              `gorm:"not null"`
	TrialEnd           *int64
	CanceledAt         *int64
	EndedAt            *int64
	AutoRenew          bool `gorm:"default:true"`
	RenewFailures      int  `gorm:"default:0"`

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Member Member `gorm:"foreignKey:MemberID"`
	Plan   Plan   `gorm:"foreignKey:PlanID"`
}
