package response

import (
	"time"

	"dustclean/internal/data/entity"
)

type PaymentResponse struct {
	ID                   string               `json:"id"`
	TransactionID        string               `json:"transaction_id"`
	BookingID            string               `json:"booking_id"`
	Amount               float64              `json:"amount"`
	Currency             string               `json:"currency"`
	PaymentMethod        string               `json:"payment_method,omitempty"`
	Gateway              string               `json:"gateway"`
	GatewayOrderID       *string              `json:"gateway_order_id,omitempty"`
	GatewayTransactionID *string              `json:"gateway_transaction_id,omitempty"`
	Status               entity.PaymentStatus `json:"status"`
	Refund               *RefundResponse      `json:"refund,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
}

type RefundResponse struct {
	RefundAmount        float64    `json:"refund_amount"`
	RefundTransactionID *string    `json:"refund_transaction_id,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	Reason              *string    `json:"reason,omitempty"`
}

// CheckoutOrderResponse is returned when a gateway order is opened; the
// client hands these to the checkout widget.
type CheckoutOrderResponse struct {
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:                   payment.ID.String(),
		TransactionID:        payment.TransactionID,
		BookingID:            payment.BookingID.String(),
		Amount:               payment.Amount,
		Currency:             payment.Currency,
		PaymentMethod:        payment.PaymentMethod,
		Gateway:              payment.Gateway,
		GatewayOrderID:       payment.GatewayOrderID,
		GatewayTransactionID: payment.GatewayTransactionID,
		Status:               payment.Status,
		CreatedAt:            payment.CreatedAt,
	}

	if payment.IsRefunded {
		resp.Refund = &RefundResponse{
			RefundAmount:        payment.RefundAmount,
			RefundTransactionID: payment.RefundTransactionID,
			RefundedAt:          payment.RefundedAt,
			Reason:              payment.RefundReason,
		}
	}

	return resp
}
