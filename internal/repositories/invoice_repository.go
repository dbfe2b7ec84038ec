package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memberly/internal/models/db_models"
)

type IInvoiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Invoice, error)
	Create(ctx context.Context, invoice *db_models.Invoice) error
	Update(ctx context.Context, invoice *db_models.Invoice) error
	FindByPeriod(ctx context.Context, subscriptionID uuid.UUID, periodStart int64) (*db_models.Invoice, error)
	ListOverdue(ctx context.Context, now int64, limit int) ([]db_models.Invoice, error)
	NextInvoiceNumber(ctx context.Context, organizationID uuid.UUID, orgCode string, year int) (string, error)
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) IInvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Invoice, error) {
	var invoice db_models.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *db_models.Invoice) error {
	err := r.db.WithContext(ctx).Create(invoice).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Either the (subscription, period) or the (org, number) index fired.
		return fmt.Errorf("duplicate invoice for period: %w", err)
	}
	return err
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *db_models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *InvoiceRepository) FindByPeriod(ctx context.Context, subscriptionID uuid.UUID, periodStart int64) (*db_models.Invoice, error) {
	var invoice db_models.Invoice
	err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND period_start = ?", subscriptionID, periodStart).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) ListOverdue(ctx context.Context, now int64, limit int) ([]db_models.Invoice, error) {
	var invoices []db_models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("status IN ? AND due_date < ?",
			[]db_models.InvoiceStatus{db_models.InvoiceStatusPending, db_models.InvoiceStatusFailed}, now).
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// NextInvoiceNumber allocates the next number from the per-(org, year)
// sequence row. The row is taken FOR UPDATE so concurrent generators
// serialize on it; the unique index on invoices is the final guarantee.
func (r *InvoiceRepository) NextInvoiceNumber(ctx context.Context, organizationID uuid.UUID, orgCode string, year int) (string, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq db_models.InvoiceSequence
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("organization_id = ? AND year = ?", organizationID, year).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = db_models.InvoiceSequence{
				OrganizationID: organizationID,
				Year:           year,
				LastValue:      1,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			next = 1
			return nil
		}
		if err != nil {
			return err
		}
		seq.LastValue++
		next = seq.LastValue
		return tx.Save(&seq).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%d-%06d", orgCode, year, next), nil
}
