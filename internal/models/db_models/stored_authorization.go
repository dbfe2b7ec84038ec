package db_models

import "github.com/google/uuid"

// StoredAuthorization is a gateway-issued token allowing off-session renewal
// charges. One row per member, latest successful charge wins. Never exposed
// through the API.
type StoredAuthorization struct {
	BaseModel
	MemberID uuid.UUID `gorm:"uniqueIndex"`

	Provider          string
	AuthorizationCode string `gorm:"not null"`
	CardType          string
	Last4             string `gorm:"size:4"`
	Bank              string
	Reusable          bool `gorm:"default:true"`

	Member Member `gorm:"foreignKey:MemberID"`
}
