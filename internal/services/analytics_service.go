package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"memberly/internal/models/request_models"
	"memberly/internal/models/response_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type IAnalyticsService interface {
	MRR(ctx context.Context, organizationID uuid.UUID, query request_models.AnalyticsQuery) (*response_models.MRRReport, error)
	Churn(ctx context.Context, organizationID uuid.UUID, query request_models.AnalyticsQuery) (*response_models.ChurnReport, error)
	Revenue(ctx context.Context, organizationID uuid.UUID, query request_models.AnalyticsQuery) (*response_models.RevenueReport, error)
	PlanPerformance(ctx context.Context, organizationID uuid.UUID) (*response_models.PlanPerformanceReport, error)
}

type AnalyticsService struct {
	repo repositories.IAnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsService(repo repositories.IAnalyticsRepository) IAnalyticsService {
	return &AnalyticsService{repo: repo, now: time.Now}
}

var monthsPerYear = decimal.NewFromInt(12)

// monthlyEquivalent normalizes a plan price to its per-month contribution.
// Weekly plans bill 52 times a year, so a week is 52/12 of a month.
func monthlyEquivalent(amount decimal.Decimal, interval string, intervalCount int) decimal.Decimal {
	if intervalCount <= 0 {
		intervalCount = 1
	}
	var perMonth decimal.Decimal
	switch interval {
	case utils.IntervalWeekly:
		perMonth = amount.Mul(decimal.NewFromInt(52)).Div(monthsPerYear)
	case utils.IntervalMonthly:
		perMonth = amount
	case utils.IntervalQuarterly:
		perMonth = amount.Div(decimal.NewFromInt(3))
	case utils.IntervalYearly:
		perMonth = amount.Div(monthsPerYear)
	default:
		perMonth = amount
	}
	return perMonth.Div(decimal.NewFromInt(int64(intervalCount)))
}

func (s *AnalyticsService) window(query request_models.AnalyticsQuery) (time.Time, time.Time, error) {
	return utils.ResolvePeriod(query.Period, query.StartDate, query.EndDate, s.now())
}

func (s *AnalyticsService) MRR(ctx context.Context, organizationID uuid.UUID, query request_models.AnalyticsQuery) (*response_models.MRRReport, error) {
	start, end, err := s.window(query)
	if err != nil {
		return nil, err
	}

	current, currency, err := s.mrrAt(ctx, organizationID, end)
	if err != nil {
		return nil, err
	}
	previous, prevCurrency, err := s.mrrAt(ctx, organizationID, start)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = prevCurrency
	}

	activeRows, err := s.repo.ActiveSubscriptionsWithPlan(ctx, organizationID, end)
	if err != nil {
		return nil, err
	}

	return &response_models.MRRReport{
		Window:        response_models.PeriodWindow{Start: start, End: end},
		MRR:           current.StringFixed(2),
		Currency:      currency,
		PreviousMRR:   previous.StringFixed(2),
		GrowthPercent: growthPercent(previous, current),
		ActiveCount:   int64(len(activeRows)),
	}, nil
}

func (s *AnalyticsService) mrrAt(ctx context.Context, organizationID uuid.UUID, asOf time.Time) (decimal.Decimal, string, error) {
	rows, err := s.repo.ActiveSubscriptionsWithPlan(ctx, organizationID, asOf)
	if err != nil {
		return decimal.Zero, "", err
	}
	total := decimal.Zero
	currency := ""
	for _, row := range rows {
		total = total.Add(monthlyEquivalent(row.Amount, row.Interval, row.IntervalCount))
		if currency == "" {
			currency = row.Currency
		}
	}
	return total.Round(2), currency, nil
}

func (s *AnalyticsService) Churn(ctx context.Context, organizationID uuid.UUID, query request_models.AnalyticsQuery) (*response_models.ChurnReport, error) {
	start, end, err := s.window(query)
	if err != nil {
		return nil, err
	}

	churned, err := s.repo.CountCanceledInPeriod(ctx, organizationID, start, end)
	if err != nil {
		return nil, err
	}
	atStart, err := s.repo.CountSubscribersAt(ctx, organizationID, start)
	if err != nil {
		return nil, err
	}

	rate := 0.0
	if atStart > 0 {
		rate = float64(churned) / float64(atStart) * 100
	}

	return &response_models.ChurnReport{
		Window:             response_models.PeriodWindow{Start: start, End: end},
		ChurnedCount:       churned,
		SubscribersAtStart: atStart,
		ChurnRatePercent:   rate,
	}, nil
}

func (s *AnalyticsService) Revenue(ctx context.Context, organizationID uuid.UUID, query request_models.AnalyticsQuery) (*response_models.RevenueReport, error) {
	start, end, err := s.window(query)
	if err != nil {
		return nil, err
	}

	total, currency, err := s.repo.SumSuccessfulPayments(ctx, organizationID, start, end)
	if err != nil {
		return nil, err
	}

	// Growth compares against the equal-length window immediately preceding.
	prevStart := start.Add(-end.Sub(start))
	previous, prevCurrency, err := s.repo.SumSuccessfulPayments(ctx, organizationID, prevStart, start)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = prevCurrency
	}

	return &response_models.RevenueReport{
		Window:        response_models.PeriodWindow{Start: start, End: end},
		Total:         total.StringFixed(2),
		Currency:      currency,
		PreviousTotal: previous.StringFixed(2),
		GrowthPercent: growthPercent(previous, total),
	}, nil
}

func (s *AnalyticsService) PlanPerformance(ctx context.Context, organizationID uuid.UUID) (*response_models.PlanPerformanceReport, error) {
	rows, err := s.repo.PlanPerformance(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	items := make([]response_models.PlanPerformanceItem, 0, len(rows))
	for _, row := range rows {
		conversion := 0.0
		if row.TotalCreated > 0 {
			conversion = float64(row.ActiveCount) / float64(row.TotalCreated) * 100
		}
		items = append(items, response_models.PlanPerformanceItem{
			PlanID:                row.PlanID,
			PlanCode:              row.PlanCode,
			PlanName:              row.PlanName,
			ActiveSubscriptions:   row.ActiveCount,
			TotalSubscriptions:    row.TotalCreated,
			Revenue:               row.Revenue.StringFixed(2),
			Currency:              row.Currency,
			ConversionRatePercent: conversion,
		})
	}
	return &response_models.PlanPerformanceReport{Items: items}, nil
}

func growthPercent(previous, current decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	f, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return f
}
