package request_models

type CreatePlanRequest struct {
	Code          string   `json:"code" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Description   *string  `json:"description"`
	Amount        string   `json:"amount" binding:"required"` // decimal string, e.g. "100.00"
	Currency      string   `json:"currency" binding:"required,len=3"`
	Interval      string   `json:"interval" binding:"required,oneof=weekly monthly quarterly yearly"`
	IntervalCount int      `json:"interval_count"`
	TrialDays     int32    `json:"trial_period_days"`
	Features      []string `json:"features"`
}
