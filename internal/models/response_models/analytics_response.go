package response_models

import "time"

type PeriodWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type MRRReport struct {
	Window        PeriodWindow `json:"window"`
	MRR           string       `json:"mrr"`
	Currency      string       `json:"currency"`
	PreviousMRR   string       `json:"previous_mrr"`
	GrowthPercent float64      `json:"growth_percent"`
	ActiveCount   int64        `json:"active_subscriptions"`
}

type ChurnReport struct {
	Window             PeriodWindow `json:"window"`
	ChurnedCount       int64        `json:"churned_count"`
	SubscribersAtStart int64        `json:"subscribers_at_start"`
	ChurnRatePercent   float64      `json:"churn_rate_percent"`
}

type RevenueReport struct {
	Window        PeriodWindow `json:"window"`
	Total         string       `json:"total"`
	Currency      string       `json:"currency"`
	PreviousTotal string       `json:"previous_total"`
	GrowthPercent float64      `json:"growth_percent"`
}

type PlanPerformanceItem struct {
	PlanID                string  `json:"plan_id"`
	PlanCode              string  `json:"plan_code"`
	PlanName              string  `json:"plan_name"`
	ActiveSubscriptions   int64   `json:"active_subscriptions"`
	TotalSubscriptions    int64   `json:"total_subscriptions"`
	Revenue               string  `json:"revenue"`
	Currency              string  `json:"currency"`
	ConversionRatePercent float64 `json:"conversion_rate_percent"`
}

type PlanPerformanceReport struct {
	Items []PlanPerformanceItem `json:"items"`
}
