package request

type BookingServiceInput struct {
	ServiceID string   `json:"service_id" validate:"required,uuid4"`
	Quantity  int      `json:"quantity" validate:"required,min=1"`
	AddOns    []string `json:"add_ons,omitempty"`
}

type CreateBookingRequest struct {
	Services            []BookingServiceInput `json:"services" validate:"required,min=1,dive"`
	ServiceAddress      string                `json:"service_address" validate:"required,min=10,max=500"`
	ScheduledDate       string                `json:"scheduled_date" validate:"required"` // RFC3339
	ScheduledTimeSlot   string                `json:"scheduled_time_slot" validate:"required,oneof=08:00-10:00 10:00-12:00 12:00-14:00 14:00-16:00 16:00-18:00"`
	SpecialInstructions *string               `json:"special_instructions,omitempty" validate:"omitempty,max=1000"`
	CouponCode          *string               `json:"coupon_code,omitempty" validate:"omitempty,min=3,max=30"`
}

// UpdateBookingRequest carries the customer-editable fields. Only provided
// fields change.
type UpdateBookingRequest struct {
	ServiceAddress      *string `json:"service_address,omitempty" validate:"omitempty,min=10,max=500"`
	ScheduledDate       *string `json:"scheduled_date,omitempty"`
	ScheduledTimeSlot   *string `json:"scheduled_time_slot,omitempty" validate:"omitempty,oneof=08:00-10:00 10:00-12:00 12:00-14:00 14:00-16:00 16:00-18:00"`
	SpecialInstructions *string `json:"special_instructions,omitempty" validate:"omitempty,max=1000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed assigned in_progress completed"`
}

type StaffAssignmentInput struct {
	StaffID string `json:"staff_id" validate:"required,uuid4"`
	Role    string `json:"role" validate:"required,oneof=lead helper"`
}

type AssignStaffRequest struct {
	Staff []StaffAssignmentInput `json:"staff" validate:"required,min=1,dive"`
}
