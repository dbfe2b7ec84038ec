package gateway

import (
	"encoding/json"
	"fmt"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// ParseWebhookEvent decodes a provider webhook payload into its event type
// and the normalized transaction it carries. Signature verification happens
// separately, on the raw bytes, before this is called.
func ParseWebhookEvent(rawBody []byte) (string, *ChargeResult, error) {
	var event struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return "", nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if event.Event == "" {
		return "", nil, fmt.Errorf("webhook payload missing event type")
	}
	result, err := decodeChargeResult(event.Data)
	if err != nil {
		return "", nil, err
	}
	return event.Event, result, nil
}
