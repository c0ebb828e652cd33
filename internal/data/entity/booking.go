package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// TimeSlots is the fixed set of bookable visit windows.
var TimeSlots = []string{
	"08:00-10:00",
	"10:00-12:00",
	"12:00-14:00",
	"14:00-16:00",
	"16:00-18:00",
}

type StaffRole string

const (
	StaffRoleLead   StaffRole = "lead"
	StaffRoleHelper StaffRole = "helper"
)

// LineItem is one service entry within a booking. Name, price and add-ons
// are snapshot from the catalog at booking time, so later catalog edits
// never alter an existing booking.
type LineItem struct {
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Quantity    int       `json:"quantity"`
	BasePrice   float64   `json:"base_price"`
	AddOns      []AddOn   `json:"add_ons,omitempty"`
	Subtotal    float64   `json:"subtotal"`
}

// StaffAssignment links a staff member to a booking with their role on site.
type StaffAssignment struct {
	StaffID uuid.UUID `json:"staff_id"`
	Role    StaffRole `json:"role"`
}

// Cancellation records who cancelled a booking, when, why, and how much
// money went back. A refunded booking stays in status cancelled; the refund
// amount here and the payment's refund record carry the money trail.
type Cancellation struct {
	CancelledBy  uuid.UUID `json:"cancelled_by"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason"`
	RefundAmount float64   `json:"refund_amount"`
}

type Booking struct {
	Base
	BookingNumber       string            `db:"booking_number"`
	CustomerID          uuid.UUID         `db:"customer_id"`
	LineItems           []LineItem        `db:"line_items"` // JSONB
	ServiceAddress      string            `db:"service_address"`
	ScheduledDate       time.Time         `db:"scheduled_date"`
	ScheduledTimeSlot   string            `db:"scheduled_time_slot"`
	SpecialInstructions *string           `db:"special_instructions"`
	Subtotal            float64           `db:"subtotal"`
	Tax                 float64           `db:"tax"`
	Discount            float64           `db:"discount"`
	Total               float64           `db:"total"`
	CouponCode          *string           `db:"coupon_code"`
	Status              BookingStatus     `db:"status"`
	AssignedStaff       []StaffAssignment `db:"assigned_staff"` // JSONB
	Cancellation        *Cancellation     `db:"cancellation"`   // JSONB
	PaymentID           *uuid.UUID        `db:"payment_id"`
}

// forward transitions only; cancellation is handled separately because it
// depends on the actor and the time window
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed},
	BookingStatusConfirmed:  {BookingStatusAssigned},
	BookingStatusAssigned:   {BookingStatusInProgress},
	BookingStatusInProgress: {BookingStatusCompleted},
}

// CancellableStatuses is the set of states a booking may be cancelled from.
// A visit in progress or finished keeps its status even when money goes back.
var CancellableStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusAssigned,
}

// IsCancellable reports whether the booking's current status allows
// cancellation, ignoring the time window.
func (b *Booking) IsCancellable() bool {
	for _, s := range CancellableStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether a booking may move from its current status
// to the target status.
func (b *Booking) CanTransition(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether the booking is cancellable at the given moment:
// strictly more than the window before the scheduled date, and not yet
// assigned. Exactly on the boundary resolves to not cancellable.
func (b *Booking) CanCancel(now time.Time, window time.Duration) bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return false
	}
	return now.Before(b.ScheduledDate.Add(-window))
}

// CanReschedule reports whether the visit may still be moved. Assigned
// bookings can be rescheduled up to the (longer) reschedule window.
func (b *Booking) CanReschedule(now time.Time, window time.Duration) bool {
	switch b.Status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusAssigned:
		return now.Before(b.ScheduledDate.Add(-window))
	default:
		return false
	}
}

// IsValidTimeSlot reports whether slot is one of the fixed visit windows.
func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}
