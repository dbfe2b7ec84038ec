package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Member struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index"`
	Email          string    `gorm:"uniqueIndex;not null"`
	FullName       string
	PasswordHash   string `gorm:"not null"`
	Role           string `gorm:"default:member"`
	IsActive       bool   `gorm:"default:true"`

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
