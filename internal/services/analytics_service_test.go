package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberly/internal/models/request_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type fakeAnalyticsRepo struct {
	activeFunc      func(asOf time.Time) ([]repositories.SubWithPlan, error)
	canceledFunc    func(start, end time.Time) (int64, error)
	subscribersFunc func(t time.Time) (int64, error)
	paymentsFunc    func(start, end time.Time) (decimal.Decimal, string, error)
	performanceFunc func() ([]repositories.PlanPerformanceRow, error)
}

func (f *fakeAnalyticsRepo) ActiveSubscriptionsWithPlan(_ context.Context, _ uuid.UUID, asOf time.Time) ([]repositories.SubWithPlan, error) {
	if f.activeFunc != nil {
		return f.activeFunc(asOf)
	}
	return nil, nil
}

func (f *fakeAnalyticsRepo) CountCanceledInPeriod(_ context.Context, _ uuid.UUID, start, end time.Time) (int64, error) {
	if f.canceledFunc != nil {
		return f.canceledFunc(start, end)
	}
	return 0, nil
}

func (f *fakeAnalyticsRepo) CountSubscribersAt(_ context.Context, _ uuid.UUID, t time.Time) (int64, error) {
	if f.subscribersFunc != nil {
		return f.subscribersFunc(t)
	}
	return 0, nil
}

func (f *fakeAnalyticsRepo) SumSuccessfulPayments(_ context.Context, _ uuid.UUID, start, end time.Time) (decimal.Decimal, string, error) {
	if f.paymentsFunc != nil {
		return f.paymentsFunc(start, end)
	}
	return decimal.Zero, "", nil
}

func (f *fakeAnalyticsRepo) PlanPerformance(_ context.Context, _ uuid.UUID) ([]repositories.PlanPerformanceRow, error) {
	if f.performanceFunc != nil {
		return f.performanceFunc()
	}
	return nil, nil
}

func analyticsAt(repo *fakeAnalyticsRepo, now time.Time) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: func() time.Time { return now }}
}

func TestMonthlyEquivalentNormalization(t *testing.T) {
	tests := []struct {
		amount   string
		interval string
		count    int
		want     string
	}{
		{amount: "12.00", interval: utils.IntervalMonthly, count: 1, want: "12.00"},
		{amount: "120.00", interval: utils.IntervalYearly, count: 1, want: "10.00"},
		{amount: "30.00", interval: utils.IntervalQuarterly, count: 1, want: "10.00"},
		{amount: "3.00", interval: utils.IntervalWeekly, count: 1, want: "13.00"},
		{amount: "24.00", interval: utils.IntervalMonthly, count: 2, want: "12.00"},
	}
	for _, tt := range tests {
		got := monthlyEquivalent(decimal.RequireFromString(tt.amount), tt.interval, tt.count)
		assert.Equal(t, tt.want, got.Round(2).StringFixed(2),
			"%s %s x%d", tt.amount, tt.interval, tt.count)
	}
}

func TestMRRReportWithGrowth(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	windowStart := now.AddDate(0, -1, 0)

	repo := &fakeAnalyticsRepo{
		activeFunc: func(asOf time.Time) ([]repositories.SubWithPlan, error) {
			rows := []repositories.SubWithPlan{
				{Interval: utils.IntervalMonthly, IntervalCount: 1, Amount: decimal.RequireFromString("25.00"), Currency: "USD"},
			}
			if asOf.After(windowStart) {
				// A yearly plan joined during the window.
				rows = append(rows, repositories.SubWithPlan{
					Interval: utils.IntervalYearly, IntervalCount: 1,
					Amount: decimal.RequireFromString("120.00"), Currency: "USD",
				})
			}
			return rows, nil
		},
	}

	svc := analyticsAt(repo, now)
	report, err := svc.MRR(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "month"})
	require.NoError(t, err)

	assert.Equal(t, "35.00", report.MRR)
	assert.Equal(t, "25.00", report.PreviousMRR)
	assert.Equal(t, "USD", report.Currency)
	assert.Equal(t, int64(2), report.ActiveCount)
	assert.InDelta(t, 40.0, report.GrowthPercent, 0.01)
}

func TestMRRIsDeterministicAcrossRuns(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeAnalyticsRepo{
		activeFunc: func(time.Time) ([]repositories.SubWithPlan, error) {
			return []repositories.SubWithPlan{
				{Interval: utils.IntervalWeekly, IntervalCount: 1, Amount: decimal.RequireFromString("3.33"), Currency: "USD"},
				{Interval: utils.IntervalYearly, IntervalCount: 1, Amount: decimal.RequireFromString("99.99"), Currency: "USD"},
			}, nil
		},
	}
	svc := analyticsAt(repo, now)

	first, err := svc.MRR(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "month"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.MRR(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "month"})
		require.NoError(t, err)
		assert.Equal(t, first.MRR, again.MRR)
	}
}

func TestChurnZeroSubscribersYieldsZeroRate(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		canceledFunc:    func(_, _ time.Time) (int64, error) { return 0, nil },
		subscribersFunc: func(time.Time) (int64, error) { return 0, nil },
	}
	svc := analyticsAt(repo, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))

	report, err := svc.Churn(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "month"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.ChurnRatePercent)
	assert.Equal(t, int64(0), report.SubscribersAtStart)
}

func TestChurnRate(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		canceledFunc:    func(_, _ time.Time) (int64, error) { return 5, nil },
		subscribersFunc: func(time.Time) (int64, error) { return 200, nil },
	}
	svc := analyticsAt(repo, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))

	report, err := svc.Churn(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "month"})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, report.ChurnRatePercent, 0.001)
	assert.Equal(t, int64(5), report.ChurnedCount)
}

func TestRevenueComparesPrecedingWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	windowStart := now.AddDate(0, -1, 0)

	repo := &fakeAnalyticsRepo{
		paymentsFunc: func(start, end time.Time) (decimal.Decimal, string, error) {
			if start.Equal(windowStart) {
				return decimal.RequireFromString("150.00"), "USD", nil
			}
			// Preceding window of equal length.
			assert.Equal(t, windowStart, end)
			return decimal.RequireFromString("100.00"), "USD", nil
		},
	}
	svc := analyticsAt(repo, now)

	report, err := svc.Revenue(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "month"})
	require.NoError(t, err)
	assert.Equal(t, "150.00", report.Total)
	assert.Equal(t, "100.00", report.PreviousTotal)
	assert.InDelta(t, 50.0, report.GrowthPercent, 0.01)
}

func TestPlanPerformanceConversionRate(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		performanceFunc: func() ([]repositories.PlanPerformanceRow, error) {
			return []repositories.PlanPerformanceRow{
				{PlanCode: "pro", ActiveCount: 30, TotalCreated: 40, Revenue: decimal.RequireFromString("750.00"), Currency: "USD"},
				{PlanCode: "unused", ActiveCount: 0, TotalCreated: 0, Revenue: decimal.Zero, Currency: "USD"},
			}, nil
		},
	}
	svc := analyticsAt(repo, time.Now())

	report, err := svc.PlanPerformance(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, report.Items, 2)

	assert.InDelta(t, 75.0, report.Items[0].ConversionRatePercent, 0.01)
	assert.Equal(t, "750.00", report.Items[0].Revenue)
	assert.Equal(t, 0.0, report.Items[1].ConversionRatePercent, "zero denominator yields zero")
}

func TestCustomPeriodValidation(t *testing.T) {
	svc := analyticsAt(&fakeAnalyticsRepo{}, time.Now())

	_, err := svc.Churn(context.Background(), uuid.New(), request_models.AnalyticsQuery{Period: "custom"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Churn(context.Background(), uuid.New(), request_models.AnalyticsQuery{
		Period: "custom", StartDate: "2026-02-01", EndDate: "2026-01-01",
	})
	assert.ErrorIs(t, err, utils.ErrValidation)
}
