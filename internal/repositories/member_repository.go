package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memberly/internal/models/db_models"
)

type IMemberRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Member, error)
	GetByEmail(ctx context.Context, email string) (*db_models.Member, error)
	Create(ctx context.Context, member *db_models.Member) error
}

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) IMemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Member, error) {
	var member db_models.Member
	err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*db_models.Member, error) {
	var member db_models.Member
	err := r.db.WithContext(ctx).First(&member, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) Create(ctx context.Context, member *db_models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}
