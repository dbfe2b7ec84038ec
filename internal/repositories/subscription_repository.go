package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memberly/internal/models/db_models"
)

type ISubscriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	Create(ctx context.Context, sub *db_models.Subscription) error
	Update(ctx context.Context, sub *db_models.Subscription) error
	FindLive(ctx context.Context, memberID, planID uuid.UUID) (*db_models.Subscription, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]db_models.Subscription, error)
	ListExpirable(ctx context.Context, now int64, limit int) ([]db_models.Subscription, error)
	ListTrialEnded(ctx context.Context, now int64, limit int) ([]db_models.Subscription, error)
	ListAutoRenewDue(ctx context.Context, now int64, limit int) ([]db_models.Subscription, error)
	ListEndingSoon(ctx context.Context, from, until int64, limit int) ([]db_models.Subscription, error)
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) ISubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).Preload("Plan").First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// FindLive returns the member's active, trialing, pending or paused
// subscription to the plan, if any. Used to enforce the one-live-subscription
// invariant at create time.
func (r *SubscriptionRepository) FindLive(ctx context.Context, memberID, planID uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND plan_id = ? AND status IN ?",
			memberID, planID,
			[]db_models.SubscriptionStatus{
				db_models.SubStatusActive,
				db_models.SubStatusTrialing,
				db_models.SubStatusPending,
				db_models.SubStatusPaused,
			}).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) ListExpirable(ctx context.Context, now int64, limit int) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("status = ? AND current_period_end < ?", db_models.SubStatusActive, now).
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) ListTrialEnded(ctx context.Context, now int64, limit int) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("status = ? AND trial_end IS NOT NULL AND trial_end < ?", db_models.SubStatusTrialing, now).
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListAutoRenewDue returns active auto-renewing subscriptions whose period has
// ended. Expiry has a later deadline than renewal, so renewal sees them first.
func (r *SubscriptionRepository) ListAutoRenewDue(ctx context.Context, now int64, limit int) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Member").
		Where("status = ? AND auto_renew = TRUE AND current_period_end <= ?", db_models.SubStatusActive, now).
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListEndingSoon returns active subscriptions without auto-renew whose period
// ends inside the warning window, for expiry-warning notifications.
func (r *SubscriptionRepository) ListEndingSoon(ctx context.Context, from, until int64, limit int) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("status = ? AND auto_renew = FALSE AND current_period_end BETWEEN ? AND ?",
			db_models.SubStatusActive, from, until).
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
