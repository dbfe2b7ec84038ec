package response_models

type CheckoutResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	Provider         string `json:"provider"`
}

type VerifyResponse struct {
	Reference     string `json:"reference"`
	GatewayStatus string `json:"gateway_status"`
	PaymentStatus string `json:"payment_status"`
	InvoiceStatus string `json:"invoice_status"`
}
