package usecase

import (
	"context"
	"fmt"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/internal/dto/request"
	"dustclean/internal/dto/response"
	"dustclean/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetAllBookings(ctx context.Context, status *string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingByID(ctx context.Context, bookingID string, actorID uuid.UUID, role entity.UserRole) (*response.BookingResponse, error)
	UpdateBooking(ctx context.Context, bookingID string, customerID uuid.UUID, req *request.UpdateBookingRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID string, actorID uuid.UUID, role entity.UserRole, req *request.CancelBookingRequest) (*response.BookingResponse, error)
	UpdateStatus(ctx context.Context, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
	AssignStaff(ctx context.Context, bookingID string, req *request.AssignStaffRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	config *utils.Config
	log    *zap.Logger
}

func NewBookingService(repo *repository.Repository, config *utils.Config, log *zap.Logger) BookingService {
	return &bookingService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	scheduledDate, err := time.Parse(time.RFC3339, req.ScheduledDate)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_date must be RFC3339", ErrValidation)
	}

	now := time.Now()
	if scheduledDate.Before(now) {
		return nil, fmt.Errorf("%w: scheduled_date must be in the future", ErrValidation)
	}

	lineItems, err := s.buildLineItems(ctx, req.Services)
	if err != nil {
		return nil, err
	}

	pricing := ComputePricing(lineItems, s.config.Booking.TaxRatePercent)

	// Reserve the coupon use before the booking exists, and release it if
	// persisting fails. Redeem is atomic so concurrent bookings never push
	// used_count past the limit.
	var couponCode *string
	if req.CouponCode != nil {
		coupon, err := s.repo.Coupon.Redeem(ctx, *req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("redeem coupon: %w", err)
		}
		if coupon == nil {
			return nil, fmt.Errorf("coupon %s: %w", *req.CouponCode, ErrNotFound)
		}

		if pricing.Total < coupon.MinOrderValue {
			if err := s.repo.Coupon.Unredeem(ctx, coupon.Code); err != nil {
				s.log.Error("Failed to release coupon after minimum check", zap.Error(err), zap.String("code", coupon.Code))
			}
			return nil, fmt.Errorf("%w: order below coupon minimum of %.2f", ErrValidation, coupon.MinOrderValue)
		}

		pricing = pricing.ApplyDiscount(coupon.Discount(pricing.Total))
		couponCode = &coupon.Code
	}

	seq, err := s.repo.Booking.NextDailySequence(ctx, now)
	if err != nil {
		if couponCode != nil {
			if rbErr := s.repo.Coupon.Unredeem(ctx, *couponCode); rbErr != nil {
				s.log.Error("Failed to release coupon after sequence failure", zap.Error(rbErr))
			}
		}
		return nil, fmt.Errorf("allocate booking number: %w", err)
	}

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingNumber:       utils.FormatBookingNumber(now, seq),
		CustomerID:          customerID,
		LineItems:           lineItems,
		ServiceAddress:      req.ServiceAddress,
		ScheduledDate:       scheduledDate,
		ScheduledTimeSlot:   req.ScheduledTimeSlot,
		SpecialInstructions: req.SpecialInstructions,
		Subtotal:            pricing.Subtotal,
		Tax:                 pricing.Tax,
		Discount:            pricing.Discount,
		Total:               pricing.Total,
		CouponCode:          couponCode,
		Status:              entity.BookingStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		if couponCode != nil {
			if rbErr := s.repo.Coupon.Unredeem(ctx, *couponCode); rbErr != nil {
				s.log.Error("Failed to release coupon after create failure", zap.Error(rbErr))
			}
		}
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_number", booking.BookingNumber),
		zap.Float64("total", booking.Total),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// buildLineItems resolves the requested services against the catalog and
// snapshots name, price and add-ons into the booking. Inactive or unknown
// services and unknown add-ons are rejected.
func (s *bookingService) buildLineItems(ctx context.Context, inputs []request.BookingServiceInput) ([]entity.LineItem, error) {
	lineItems := make([]entity.LineItem, 0, len(inputs))

	for _, input := range inputs {
		if input.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity %d for service %s", ErrInvalidQuantity, input.Quantity, input.ServiceID)
		}

		serviceID, err := uuid.Parse(input.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidServiceRef, input.ServiceID)
		}

		service, err := s.repo.Service.FindByID(ctx, serviceID)
		if err != nil {
			return nil, fmt.Errorf("resolve service: %w", err)
		}
		if service == nil || !service.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInvalidServiceRef, input.ServiceID)
		}

		var addOns []entity.AddOn
		for _, name := range input.AddOns {
			addOn, ok := service.AddOnByName(name)
			if !ok {
				return nil, fmt.Errorf("%w: service %s has no add-on %q", ErrInvalidServiceRef, service.Name, name)
			}
			addOns = append(addOns, addOn)
		}

		item := entity.LineItem{
			ServiceID:   service.ID,
			ServiceName: service.Name,
			Quantity:    input.Quantity,
			BasePrice:   service.BasePrice,
			AddOns:      addOns,
		}
		item.Subtotal = LineItemTotal(item)
		lineItems = append(lineItems, item)
	}

	return lineItems, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindByCustomerID(ctx, customerID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return s.paginate(bookings, req, total), nil
}

func (s *bookingService) GetAllBookings(ctx context.Context, status *string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	var statusFilter *entity.BookingStatus
	if status != nil && *status != "" {
		bs := entity.BookingStatus(*status)
		statusFilter = &bs
	}

	bookings, err := s.repo.Booking.FindAll(ctx, statusFilter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}

	total, err := s.repo.Booking.CountAll(ctx, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return s.paginate(bookings, req, total), nil
}

func (s *bookingService) paginate(bookings []*entity.Booking, req *request.PaginatedRequest, total int64) *response.PaginatedResponse[response.BookingResponse] {
	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		bookingResponses[i] = response.BookingToResponse(booking)
	}
	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total)
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string, actorID uuid.UUID, role entity.UserRole) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !canViewBooking(booking, actorID, role) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrForbidden)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// canViewBooking: customers see their own bookings, staff see bookings they
// are assigned to, admins see everything.
func canViewBooking(booking *entity.Booking, actorID uuid.UUID, role entity.UserRole) bool {
	switch role {
	case entity.RoleAdmin:
		return true
	case entity.RoleStaff:
		for _, a := range booking.AssignedStaff {
			if a.StaffID == actorID {
				return true
			}
		}
		return false
	default:
		return booking.CustomerID == actorID
	}
}

func (s *bookingService) UpdateBooking(ctx context.Context, bookingID string, customerID uuid.UUID, req *request.UpdateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrForbidden)
	}

	reschedule := req.ScheduledDate != nil || req.ScheduledTimeSlot != nil
	if reschedule {
		window := time.Duration(s.config.Booking.RescheduleWindowHours) * time.Hour
		if !booking.CanReschedule(time.Now(), window) {
			return nil, fmt.Errorf("booking %s cannot be rescheduled this close to the visit: %w", bookingID, ErrStateConflict)
		}
	} else if booking.Status != entity.BookingStatusPending && booking.Status != entity.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is not editable in status %s: %w", bookingID, booking.Status, ErrStateConflict)
	}

	if req.ServiceAddress != nil {
		booking.ServiceAddress = *req.ServiceAddress
	}
	if req.ScheduledDate != nil {
		scheduledDate, err := time.Parse(time.RFC3339, *req.ScheduledDate)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduled_date must be RFC3339", ErrValidation)
		}
		if scheduledDate.Before(time.Now()) {
			return nil, fmt.Errorf("%w: scheduled_date must be in the future", ErrValidation)
		}
		booking.ScheduledDate = scheduledDate
	}
	if req.ScheduledTimeSlot != nil {
		booking.ScheduledTimeSlot = *req.ScheduledTimeSlot
	}
	if req.SpecialInstructions != nil {
		booking.SpecialInstructions = req.SpecialInstructions
	}
	booking.UpdatedAt = time.Now()

	if err := s.repo.Booking.UpdateDetails(ctx, booking); err != nil {
		s.log.Error("Failed to update booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.log.Info("Booking updated", zap.String("booking_id", bookingID), zap.Bool("rescheduled", reschedule))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string, actorID uuid.UUID, role entity.UserRole, req *request.CancelBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if role != entity.RoleAdmin {
		if booking.CustomerID != actorID {
			return nil, fmt.Errorf("booking %s: %w", bookingID, ErrForbidden)
		}
		window := time.Duration(s.config.Booking.CancelWindowHours) * time.Hour
		if !booking.CanCancel(time.Now(), window) {
			return nil, fmt.Errorf("booking %s is past the cancellation window: %w", bookingID, ErrStateConflict)
		}
	} else if !booking.IsCancellable() {
		return nil, fmt.Errorf("booking %s in status %s cannot be cancelled: %w", bookingID, booking.Status, ErrStateConflict)
	}

	cancellation := &entity.Cancellation{
		CancelledBy: actorID,
		CancelledAt: time.Now(),
		Reason:      req.Reason,
	}

	// Admins may also cancel assigned visits; customers only before
	// assignment, which CanCancel above already enforced.
	from := []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusConfirmed}
	if role == entity.RoleAdmin {
		from = entity.CancellableStatuses
	}

	cancelled, err := s.repo.Booking.Cancel(ctx, booking.ID, cancellation, from)
	if err != nil {
		s.log.Error("Failed to cancel booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if !cancelled {
		return nil, fmt.Errorf("booking %s changed state during cancellation: %w", bookingID, ErrStateConflict)
	}

	if booking.CouponCode != nil {
		if err := s.repo.Coupon.Unredeem(ctx, *booking.CouponCode); err != nil {
			s.log.Error("Failed to release coupon on cancellation", zap.Error(err), zap.String("code", *booking.CouponCode))
		}
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("cancelled_by", actorID.String()),
	)

	booking.Status = entity.BookingStatusCancelled
	booking.Cancellation = cancellation

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	to := entity.BookingStatus(req.Status)
	if to == entity.BookingStatusCancelled {
		// Cancelling writes a cancellation record and releases the coupon;
		// that path is CancelBooking, never a bare status write.
		return nil, fmt.Errorf("%w: cancellation goes through the cancel endpoint", ErrValidation)
	}
	if !booking.CanTransition(to) {
		return nil, fmt.Errorf("booking %s cannot move from %s to %s: %w", bookingID, booking.Status, to, ErrStateConflict)
	}

	moved, err := s.repo.Booking.UpdateStatusFrom(ctx, booking.ID, to, []entity.BookingStatus{booking.Status})
	if err != nil {
		s.log.Error("Failed to update booking status", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if !moved {
		return nil, fmt.Errorf("booking %s changed state during transition: %w", bookingID, ErrStateConflict)
	}

	s.log.Info("Booking status updated",
		zap.String("booking_id", bookingID),
		zap.String("status", string(to)),
	)

	booking.Status = to
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) AssignStaff(ctx context.Context, bookingID string, req *request.AssignStaffRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	staff := make([]entity.StaffAssignment, len(req.Staff))
	for i, input := range req.Staff {
		staffID, err := uuid.Parse(input.StaffID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid staff id %s", ErrValidation, input.StaffID)
		}

		member, err := s.repo.User.FindByID(ctx, staffID)
		if err != nil {
			return nil, fmt.Errorf("resolve staff: %w", err)
		}
		if member == nil || member.Role != entity.RoleStaff || !member.IsActive {
			return nil, fmt.Errorf("%w: %s is not an active staff member", ErrValidation, input.StaffID)
		}

		staff[i] = entity.StaffAssignment{
			StaffID: staffID,
			Role:    entity.StaffRole(input.Role),
		}
	}

	assigned, err := s.repo.Booking.AssignStaff(ctx, booking.ID, staff)
	if err != nil {
		s.log.Error("Failed to assign staff", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("assign staff: %w", err)
	}
	if !assigned {
		return nil, fmt.Errorf("booking %s is not assignable in status %s: %w", bookingID, booking.Status, ErrStateConflict)
	}

	s.log.Info("Staff assigned",
		zap.String("booking_id", bookingID),
		zap.Int("staff_count", len(staff)),
	)

	booking.Status = entity.BookingStatusAssigned
	booking.AssignedStaff = staff
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id %s", ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}

	return booking, nil
}
