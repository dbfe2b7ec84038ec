package response_models

import (
	"github.com/google/uuid"
)

type PlanResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Interval      string    `json:"interval"`
	IntervalCount int       `json:"interval_count"`
	TrialDays     int32     `json:"trial_period_days"`
	IsActive      bool      `json:"is_active"`
	Features      []string  `json:"features"`
}
