package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memberly/internal/models/db_models"
)

type IPaymentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error)
	GetByReference(ctx context.Context, providerReference string) (*db_models.Payment, error)
	Create(ctx context.Context, payment *db_models.Payment) error
	Update(ctx context.Context, payment *db_models.Payment) error
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) IPaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByReference(ctx context.Context, providerReference string) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := r.db.WithContext(ctx).
		Where("provider_reference = ?", providerReference).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment *db_models.Payment) error {
	err := r.db.WithContext(ctx).Create(payment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("duplicate provider reference %s: %w", payment.ProviderReference, err)
	}
	return err
}

func (r *PaymentRepository) Update(ctx context.Context, payment *db_models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}
