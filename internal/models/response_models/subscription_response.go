package response_models

import (
	"github.com/google/uuid"
)

type SubscriptionResponse struct {
	ID                 uuid.UUID `json:"id"`
	PlanID             uuid.UUID `json:"plan_id"`
	PlanCode           string    `json:"plan_code,omitempty"`
	Status             string    `json:"status"`
	CurrentPeriodStart int64     `json:"current_period_start"`
	CurrentPeriodEnd   int64     `json:"current_period_end"`
	TrialEnd           *int64    `json:"trial_end,omitempty"`
	CanceledAt         *int64    `json:"canceled_at,omitempty"`
	EndedAt            *int64    `json:"ended_at,omitempty"`
	AutoRenew          bool      `json:"auto_renew"`
}

type SubscribeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	// FirstInvoiceID is set when subscribing without a trial; the caller
	// takes it to the checkout endpoint.
	FirstInvoiceID *uuid.UUID `json:"first_invoice_id,omitempty"`
}

type InvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	PlanName      string    `json:"plan_name"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	DueDate       int64     `json:"due_date"`
	PaidAt        *int64    `json:"paid_at,omitempty"`
}
