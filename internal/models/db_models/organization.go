package db_models

import "gorm.io/datatypes"

// Organization owns plans and members. Code ends up as the middle segment of
// invoice numbers, so it stays short and uppercase.
type Organization struct {
	BaseModel
	Name         string `gorm:"not null"`
	Code         string `gorm:"size:12;uniqueIndex"`
	ContactEmail string
	IsActive     bool           `gorm:"default:true"`
	Metadata     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
