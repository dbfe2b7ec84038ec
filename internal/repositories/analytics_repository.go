package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbm "memberly/internal/models/db_models"
)

type IAnalyticsRepository interface {
	// MRR compute helpers
	ActiveSubscriptionsWithPlan(ctx context.Context, organizationID uuid.UUID, asOf time.Time) ([]SubWithPlan, error)

	// Churn
	CountCanceledInPeriod(ctx context.Context, organizationID uuid.UUID, start, end time.Time) (int64, error)
	CountSubscribersAt(ctx context.Context, organizationID uuid.UUID, t time.Time) (int64, error)

	// Revenue
	SumSuccessfulPayments(ctx context.Context, organizationID uuid.UUID, start, end time.Time) (decimal.Decimal, string, error)

	// Plan performance
	PlanPerformance(ctx context.Context, organizationID uuid.UUID) ([]PlanPerformanceRow, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) IAnalyticsRepository {
	return &analyticsRepository{db: db}
}

// ---------- Row helpers ----------

type SubWithPlan struct {
	SubID         string          `gorm:"column:sub_id"`
	PlanID        string          `gorm:"column:plan_id"`
	Interval      string          `gorm:"column:interval"`
	IntervalCount int             `gorm:"column:interval_count"`
	Amount        decimal.Decimal `gorm:"column:amount"`
	Currency      string          `gorm:"column:currency"`
}

type PlanPerformanceRow struct {
	PlanID       string          `gorm:"column:plan_id"`
	PlanCode     string          `gorm:"column:plan_code"`
	PlanName     string          `gorm:"column:plan_name"`
	ActiveCount  int64           `gorm:"column:active_count"`
	TotalCreated int64           `gorm:"column:total_created"`
	Revenue      decimal.Decimal `gorm:"column:revenue"`
	Currency     string          `gorm:"column:currency"`
}

// ActiveSubscriptionsWithPlan returns subscriptions paying as of asOf together
// with the plan pricing needed for MRR. Trialing subscriptions are excluded:
// they generate no revenue until conversion.
func (r *analyticsRepository) ActiveSubscriptionsWithPlan(ctx context.Context, organizationID uuid.UUID, asOf time.Time) ([]SubWithPlan, error) {
	var rows []SubWithPlan
	err := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Select(`subscriptions.id AS sub_id,
			plans.id AS plan_id,
			plans."interval" AS "interval",
			plans.interval_count AS interval_count,
			plans.amount AS amount,
			plans.currency AS currency`).
		Joins("JOIN plans ON plans.id = subscriptions.plan_id").
		Where("subscriptions.organization_id = ?", organizationID).
		Where("subscriptions.created_at <= ?", asOf.Unix()).
		Where("subscriptions.status = ? OR (subscriptions.canceled_at IS NOT NULL AND subscriptions.canceled_at > ?) OR (subscriptions.ended_at IS NOT NULL AND subscriptions.ended_at > ?)",
			dbm.SubStatusActive, asOf.Unix(), asOf.Unix()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepository) CountCanceledInPeriod(ctx context.Context, organizationID uuid.UUID, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Where("organization_id = ? AND status = ?", organizationID, dbm.SubStatusCanceled).
		Where("canceled_at BETWEEN ? AND ?", start.Unix(), end.Unix()).
		Count(&n).Error
	return n, err
}

// CountSubscribersAt counts distinct members with a live subscription at t.
func (r *analyticsRepository) CountSubscribersAt(ctx context.Context, organizationID uuid.UUID, t time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Distinct("member_id").
		Where("organization_id = ?", organizationID).
		Where("created_at <= ?", t.Unix()).
		Where("(canceled_at IS NULL OR canceled_at > ?) AND (ended_at IS NULL OR ended_at > ?)", t.Unix(), t.Unix()).
		Count(&n).Error
	return n, err
}

func (r *analyticsRepository) SumSuccessfulPayments(ctx context.Context, organizationID uuid.UUID, start, end time.Time) (decimal.Decimal, string, error) {
	var row struct {
		Total    decimal.Decimal `gorm:"column:total"`
		Currency string          `gorm:"column:currency"`
	}
	err := r.db.WithContext(ctx).
		Model(&dbm.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, MAX(currency) AS currency").
		Where("organization_id = ? AND status = ?", organizationID, dbm.PaymentStatusSuccess).
		Where("paid_at BETWEEN ? AND ?", start.Unix(), end.Unix()).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, "", err
	}
	return row.Total, row.Currency, nil
}

func (r *analyticsRepository) PlanPerformance(ctx context.Context, organizationID uuid.UUID) ([]PlanPerformanceRow, error) {
	var rows []PlanPerformanceRow
	err := r.db.WithContext(ctx).
		Model(&dbm.Plan{}).
		Select(`plans.id AS plan_id,
			plans.code AS plan_code,
			plans.name AS plan_name,
			plans.currency AS currency,
			COUNT(subscriptions.id) FILTER (WHERE subscriptions.status = 'active') AS active_count,
			COUNT(subscriptions.id) AS total_created,
			COALESCE((SELECT SUM(p.amount) FROM payments p
				JOIN invoices i ON i.id = p.invoice_id
				WHERE i.plan_id = plans.id AND p.status = 'success'), 0) AS revenue`).
		Joins("LEFT JOIN subscriptions ON subscriptions.plan_id = plans.id").
		Where("plans.organization_id = ?", organizationID).
		Group("plans.id, plans.code, plans.name, plans.currency").
		Order("plans.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
