package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is one attempt to collect money for a booking. A partially
// refunded payment keeps status success with IsRefunded set; status moves
// to refunded only once the full amount has gone back.
type Payment struct {
	Base
	TransactionID        string        `db:"transaction_id"`
	BookingID            uuid.UUID     `db:"booking_id"`
	CustomerID           uuid.UUID     `db:"customer_id"`
	Amount               float64       `db:"amount"`
	Currency             string        `db:"currency"`
	PaymentMethod        string        `db:"payment_method"`
	Gateway              string        `db:"gateway"`
	GatewayOrderID       *string       `db:"gateway_order_id"`
	GatewayTransactionID *string       `db:"gateway_transaction_id"`
	Status               PaymentStatus `db:"status"`
	IsRefunded           bool          `db:"is_refunded"`
	RefundAmount         float64       `db:"refund_amount"`
	RefundTransactionID  *string       `db:"refund_transaction_id"`
	RefundedAt           *time.Time    `db:"refunded_at"`
	RefundReason         *string       `db:"refund_reason"`
}

// RemainingRefundable is how much of the payment can still be returned.
func (p *Payment) RemainingRefundable() float64 {
	remaining := p.Amount - p.RefundAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsRefundable reports whether any money can still go back on this payment.
func (p *Payment) IsRefundable() bool {
	return p.Status == PaymentStatusSuccess && p.RemainingRefundable() > 0
}
