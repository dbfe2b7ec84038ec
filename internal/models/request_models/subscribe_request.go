package request_models

type SubscribeRequest struct {
	PlanCode string            `json:"plan_code" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

type CheckoutRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,uuid"`
}
