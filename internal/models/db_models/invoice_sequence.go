package db_models

import "github.com/google/uuid"

// InvoiceSequence holds the last issued invoice number per organization and
// year. Rows are read under FOR UPDATE so concurrent generators serialize;
// the unique index on invoices is the backstop.
type InvoiceSequence struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index;uniqueIndex:idx_invseq_org_year"`
	Year           int       `gorm:"uniqueIndex:idx_invseq_org_year"`
	LastValue      int64
}
