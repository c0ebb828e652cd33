package response

import (
	"time"

	"dustclean/internal/data/entity"
)

type LineItemResponse struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Quantity    int             `json:"quantity"`
	BasePrice   float64         `json:"base_price"`
	AddOns      []AddOnResponse `json:"add_ons,omitempty"`
	Subtotal    float64         `json:"subtotal"`
}

type PricingResponse struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type StaffAssignmentResponse struct {
	StaffID string `json:"staff_id"`
	Role    string `json:"role"`
}

type CancellationResponse struct {
	CancelledBy  string    `json:"cancelled_by"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason"`
	RefundAmount float64   `json:"refund_amount"`
}

type BookingResponse struct {
	ID                  string                    `json:"id"`
	BookingNumber       string                    `json:"booking_number"`
	CustomerID          string                    `json:"customer_id"`
	LineItems           []LineItemResponse        `json:"line_items"`
	ServiceAddress      string                    `json:"service_address"`
	ScheduledDate       time.Time                 `json:"scheduled_date"`
	ScheduledTimeSlot   string                    `json:"scheduled_time_slot"`
	SpecialInstructions *string                   `json:"special_instructions,omitempty"`
	Pricing             PricingResponse           `json:"pricing"`
	CouponCode          *string                   `json:"coupon_code,omitempty"`
	Status              entity.BookingStatus      `json:"status"`
	AssignedStaff       []StaffAssignmentResponse `json:"assigned_staff,omitempty"`
	Cancellation        *CancellationResponse     `json:"cancellation,omitempty"`
	Payment             *PaymentResponse          `json:"payment,omitempty"`
	CreatedAt           time.Time                 `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	lineItems := make([]LineItemResponse, len(booking.LineItems))
	for i, li := range booking.LineItems {
		addOns := make([]AddOnResponse, len(li.AddOns))
		for j, a := range li.AddOns {
			addOns[j] = AddOnResponse{Name: a.Name, Price: a.Price}
		}
		lineItems[i] = LineItemResponse{
			ServiceID:   li.ServiceID.String(),
			ServiceName: li.ServiceName,
			Quantity:    li.Quantity,
			BasePrice:   li.BasePrice,
			AddOns:      addOns,
			Subtotal:    li.Subtotal,
		}
	}

	var staff []StaffAssignmentResponse
	for _, s := range booking.AssignedStaff {
		staff = append(staff, StaffAssignmentResponse{
			StaffID: s.StaffID.String(),
			Role:    string(s.Role),
		})
	}

	var cancellation *CancellationResponse
	if booking.Cancellation != nil {
		cancellation = &CancellationResponse{
			CancelledBy:  booking.Cancellation.CancelledBy.String(),
			CancelledAt:  booking.Cancellation.CancelledAt,
			Reason:       booking.Cancellation.Reason,
			RefundAmount: booking.Cancellation.RefundAmount,
		}
	}

	return BookingResponse{
		ID:                  booking.ID.String(),
		BookingNumber:       booking.BookingNumber,
		CustomerID:          booking.CustomerID.String(),
		LineItems:           lineItems,
		ServiceAddress:      booking.ServiceAddress,
		ScheduledDate:       booking.ScheduledDate,
		ScheduledTimeSlot:   booking.ScheduledTimeSlot,
		SpecialInstructions: booking.SpecialInstructions,
		Pricing: PricingResponse{
			Subtotal: booking.Subtotal,
			Tax:      booking.Tax,
			Discount: booking.Discount,
			Total:    booking.Total,
		},
		CouponCode:    booking.CouponCode,
		Status:        booking.Status,
		AssignedStaff: staff,
		Cancellation:  cancellation,
		CreatedAt:     booking.CreatedAt,
	}
}
