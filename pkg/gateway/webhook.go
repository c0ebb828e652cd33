package gateway

import (
	"encoding/json"
	"fmt"
)

// Webhook event types the gateway delivers.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
)

// WebhookEvent is the envelope of a gateway webhook delivery. The signature
// is computed over the exact raw body, so callers must verify before
// decoding.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	RefundID  string `json:"refund_id,omitempty"`
	Amount    int64  `json:"amount,omitempty"` // minor units
	Reason    string `json:"reason,omitempty"`
}

// ParseWebhookEvent decodes a verified webhook body.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("webhook event missing event type")
	}
	return &event, nil
}

// ToMajorUnits converts a gateway minor-unit amount back to currency units.
func ToMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}
