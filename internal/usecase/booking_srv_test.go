package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/internal/dto/request"

	"github.com/google/uuid"
)

func seedService(t *testing.T, repo *repository.Repository, name string, basePrice float64, addOns ...entity.AddOn) *entity.Service {
	t.Helper()

	now := time.Now()
	service := &entity.Service{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        name,
		Slug:        entity.Slugify(name),
		Category:    "residential",
		BasePrice:   basePrice,
		DurationMin: 120,
		AddOns:      addOns,
		IsActive:    true,
	}
	if err := repo.Service.Create(context.Background(), service); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return service
}

func seedCoupon(t *testing.T, repo *repository.Repository, code string, coupon entity.Coupon) *entity.Coupon {
	t.Helper()

	now := time.Now()
	coupon.Base = entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	coupon.Code = code
	if coupon.ValidFrom.IsZero() {
		coupon.ValidFrom = now.Add(-time.Hour)
	}
	if coupon.ValidUntil.IsZero() {
		coupon.ValidUntil = now.Add(24 * time.Hour)
	}
	coupon.IsActive = true
	if err := repo.Coupon.Create(context.Background(), &coupon); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return &coupon
}

func createRequest(service *entity.Service, qty int) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		Services: []request.BookingServiceInput{
			{ServiceID: service.ID.String(), Quantity: qty},
		},
		ServiceAddress:    "12 Rose Garden Lane, Sector 9",
		ScheduledDate:     time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		ScheduledTimeSlot: "10:00-12:00",
	}
}

func TestCreateBookingPricesAndNumbers(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	deep := seedService(t, repo, "Deep Clean", 999)

	booking, err := svc.CreateBooking(context.Background(), customerID, createRequest(deep, 1))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if booking.Pricing.Subtotal != 999 {
		t.Errorf("subtotal = %v, want 999", booking.Pricing.Subtotal)
	}
	if booking.Pricing.Tax != 179.82 {
		t.Errorf("tax = %v, want 179.82", booking.Pricing.Tax)
	}
	if booking.Pricing.Total != 1178.82 {
		t.Errorf("total = %v, want 1178.82", booking.Pricing.Total)
	}
	if booking.Status != entity.BookingStatusPending {
		t.Errorf("status = %s, want pending", booking.Status)
	}

	wantNumber := fmt.Sprintf("DC%s0001", time.Now().Format("20060102"))
	if booking.BookingNumber != wantNumber {
		t.Errorf("booking number = %s, want %s", booking.BookingNumber, wantNumber)
	}

	second, err := svc.CreateBooking(context.Background(), customerID, createRequest(deep, 1))
	if err != nil {
		t.Fatalf("CreateBooking second: %v", err)
	}
	wantSecond := fmt.Sprintf("DC%s0002", time.Now().Format("20060102"))
	if second.BookingNumber != wantSecond {
		t.Errorf("second booking number = %s, want %s", second.BookingNumber, wantSecond)
	}
}

func TestCreateBookingSnapshotsCatalog(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	service := seedService(t, repo, "Sofa Shampoo", 500, entity.AddOn{Name: "Stain Guard", Price: 150})

	req := createRequest(service, 2)
	req.Services[0].AddOns = []string{"Stain Guard"}

	booking, err := svc.CreateBooking(context.Background(), customerID, req)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if len(booking.LineItems) != 1 {
		t.Fatalf("line items = %d, want 1", len(booking.LineItems))
	}
	item := booking.LineItems[0]
	if item.ServiceName != "Sofa Shampoo" || item.BasePrice != 500 {
		t.Errorf("snapshot = %+v, want name and price from catalog", item)
	}
	// (500 + 150) * 2
	if item.Subtotal != 1300 {
		t.Errorf("line subtotal = %v, want 1300", item.Subtotal)
	}

	// Later catalog edits must not leak into the stored booking.
	service.BasePrice = 9999
	if err := repo.Service.Update(context.Background(), service); err != nil {
		t.Fatalf("update service: %v", err)
	}
	stored, _ := repo.Booking.FindByBookingNumber(context.Background(), booking.BookingNumber)
	if stored.LineItems[0].BasePrice != 500 {
		t.Errorf("stored base price = %v, want snapshot 500", stored.LineItems[0].BasePrice)
	}
}

func TestCreateBookingRejectsBadServiceRefs(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	service := seedService(t, repo, "Deep Clean", 999)

	t.Run("unknown service", func(t *testing.T) {
		req := createRequest(service, 1)
		req.Services[0].ServiceID = uuid.New().String()
		_, err := svc.CreateBooking(context.Background(), customerID, req)
		if !errors.Is(err, ErrInvalidServiceRef) {
			t.Errorf("error = %v, want ErrInvalidServiceRef", err)
		}
	})

	t.Run("inactive service", func(t *testing.T) {
		service.IsActive = false
		if err := repo.Service.Update(context.Background(), service); err != nil {
			t.Fatalf("deactivate service: %v", err)
		}
		defer func() {
			service.IsActive = true
			_ = repo.Service.Update(context.Background(), service)
		}()

		_, err := svc.CreateBooking(context.Background(), customerID, createRequest(service, 1))
		if !errors.Is(err, ErrInvalidServiceRef) {
			t.Errorf("error = %v, want ErrInvalidServiceRef", err)
		}
	})

	t.Run("unknown add-on", func(t *testing.T) {
		req := createRequest(service, 1)
		req.Services[0].AddOns = []string{"Gold Plating"}
		_, err := svc.CreateBooking(context.Background(), customerID, req)
		if !errors.Is(err, ErrInvalidServiceRef) {
			t.Errorf("error = %v, want ErrInvalidServiceRef", err)
		}
	})
}

func TestCreateBookingWithCoupon(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	service := seedService(t, repo, "Deep Clean", 1000)

	seedCoupon(t, repo, "CLEAN10", entity.Coupon{
		DiscountType:  entity.DiscountTypePercent,
		DiscountValue: 10,
		UsageLimit:    1,
	})

	code := "CLEAN10"
	req := createRequest(service, 1)
	req.CouponCode = &code

	booking, err := svc.CreateBooking(context.Background(), customerID, req)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	// subtotal 1000, tax 180, total 1180, 10% off => 118
	if booking.Pricing.Discount != 118 {
		t.Errorf("discount = %v, want 118", booking.Pricing.Discount)
	}
	if booking.Pricing.Total != 1062 {
		t.Errorf("total = %v, want 1062", booking.Pricing.Total)
	}

	stored, _ := repo.Coupon.FindByCode(context.Background(), "CLEAN10")
	if stored.UsedCount != 1 {
		t.Errorf("used count = %d, want 1", stored.UsedCount)
	}

	// The single use is consumed; the next booking cannot redeem it.
	_, err = svc.CreateBooking(context.Background(), customerID, req)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("exhausted coupon error = %v, want ErrNotFound", err)
	}
}

func TestCancelBooking(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	service := seedService(t, repo, "Deep Clean", 999)

	created, err := svc.CreateBooking(context.Background(), customerID, createRequest(service, 1))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	t.Run("stranger cannot cancel", func(t *testing.T) {
		_, err := svc.CancelBooking(context.Background(), created.ID, uuid.New(), entity.RoleCustomer,
			&request.CancelBookingRequest{Reason: "not mine"})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner cancels inside the window", func(t *testing.T) {
		resp, err := svc.CancelBooking(context.Background(), created.ID, customerID, entity.RoleCustomer,
			&request.CancelBookingRequest{Reason: "travel plans changed"})
		if err != nil {
			t.Fatalf("CancelBooking: %v", err)
		}
		if resp.Status != entity.BookingStatusCancelled {
			t.Errorf("status = %s, want cancelled", resp.Status)
		}
		if resp.Cancellation == nil || resp.Cancellation.Reason != "travel plans changed" {
			t.Errorf("cancellation = %+v, want reason recorded", resp.Cancellation)
		}
	})

	t.Run("cancelled booking stays cancelled", func(t *testing.T) {
		_, err := svc.CancelBooking(context.Background(), created.ID, customerID, entity.RoleCustomer,
			&request.CancelBookingRequest{Reason: "again"})
		if !errors.Is(err, ErrStateConflict) {
			t.Errorf("error = %v, want ErrStateConflict", err)
		}
	})
}

func TestCancelBookingPastWindow(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()

	now := time.Now()
	booking := &entity.Booking{
		Base:              entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingNumber:     "DC202608290042",
		CustomerID:        customerID,
		ServiceAddress:    "12 Rose Garden Lane, Sector 9",
		ScheduledDate:     now.Add(90 * time.Minute), // inside the 2h cutoff
		ScheduledTimeSlot: "14:00-16:00",
		Status:            entity.BookingStatusConfirmed,
	}
	if err := repo.Booking.Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	_, err := svc.CancelBooking(context.Background(), booking.ID.String(), customerID, entity.RoleCustomer,
		&request.CancelBookingRequest{Reason: "too late"})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("error = %v, want ErrStateConflict", err)
	}

	stored, _ := repo.Booking.FindByID(context.Background(), booking.ID)
	if stored.Status != entity.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed unchanged", stored.Status)
	}
}

func TestUpdateStatusFollowsStateMachine(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	service := seedService(t, repo, "Deep Clean", 999)

	created, err := svc.CreateBooking(context.Background(), customerID, createRequest(service, 1))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), created.ID, &request.UpdateBookingStatusRequest{Status: "completed"}); !errors.Is(err, ErrStateConflict) {
		t.Errorf("pending -> completed error = %v, want ErrStateConflict", err)
	}

	resp, err := svc.UpdateStatus(context.Background(), created.ID, &request.UpdateBookingStatusRequest{Status: "confirmed"})
	if err != nil {
		t.Fatalf("pending -> confirmed: %v", err)
	}
	if resp.Status != entity.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", resp.Status)
	}

	t.Run("cancellation is not a status write", func(t *testing.T) {
		if _, err := svc.UpdateStatus(context.Background(), created.ID, &request.UpdateBookingStatusRequest{Status: "cancelled"}); !errors.Is(err, ErrValidation) {
			t.Fatalf("confirmed -> cancelled error = %v, want ErrValidation", err)
		}

		id, _ := uuid.Parse(created.ID)
		stored, _ := repo.Booking.FindByID(context.Background(), id)
		if stored.Status != entity.BookingStatusConfirmed {
			t.Errorf("status = %s, want confirmed unchanged", stored.Status)
		}
		if stored.Cancellation != nil {
			t.Errorf("cancellation = %+v, want none", stored.Cancellation)
		}
	})
}

func TestCancelBookingInProgressIsRejected(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	adminID := uuid.New()

	now := time.Now()
	booking := &entity.Booking{
		Base:              entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingNumber:     "DC202608290043",
		CustomerID:        customerID,
		ServiceAddress:    "12 Rose Garden Lane, Sector 9",
		ScheduledDate:     now.Add(-30 * time.Minute),
		ScheduledTimeSlot: "08:00-10:00",
		Status:            entity.BookingStatusInProgress,
	}
	if err := repo.Booking.Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	// Not even an admin cancels a visit with the crew already on site.
	_, err := svc.CancelBooking(context.Background(), booking.ID.String(), adminID, entity.RoleAdmin,
		&request.CancelBookingRequest{Reason: "ops mistake"})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("error = %v, want ErrStateConflict", err)
	}

	stored, _ := repo.Booking.FindByID(context.Background(), booking.ID)
	if stored.Status != entity.BookingStatusInProgress {
		t.Errorf("status = %s, want in_progress unchanged", stored.Status)
	}
}

func TestAssignStaff(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()
	service := seedService(t, repo, "Deep Clean", 999)

	created, err := svc.CreateBooking(context.Background(), customerID, createRequest(service, 1))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), created.ID, &request.UpdateBookingStatusRequest{Status: "confirmed"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	now := time.Now()
	lead := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Role:     entity.RoleStaff,
		IsActive: true,
	}
	if err := repo.User.Create(context.Background(), lead); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	t.Run("non-staff user is rejected", func(t *testing.T) {
		_, err := svc.AssignStaff(context.Background(), created.ID, &request.AssignStaffRequest{
			Staff: []request.StaffAssignmentInput{{StaffID: customerID.String(), Role: "lead"}},
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("staff assignment moves booking to assigned", func(t *testing.T) {
		resp, err := svc.AssignStaff(context.Background(), created.ID, &request.AssignStaffRequest{
			Staff: []request.StaffAssignmentInput{{StaffID: lead.ID.String(), Role: "lead"}},
		})
		if err != nil {
			t.Fatalf("AssignStaff: %v", err)
		}
		if resp.Status != entity.BookingStatusAssigned {
			t.Errorf("status = %s, want assigned", resp.Status)
		}
		if len(resp.AssignedStaff) != 1 || resp.AssignedStaff[0].Role != "lead" {
			t.Errorf("assigned staff = %+v, want one lead", resp.AssignedStaff)
		}
	})

	t.Run("assigned staff can view the booking", func(t *testing.T) {
		if _, err := svc.GetBookingByID(context.Background(), created.ID, lead.ID, entity.RoleStaff); err != nil {
			t.Errorf("staff view: %v", err)
		}
		if _, err := svc.GetBookingByID(context.Background(), created.ID, uuid.New(), entity.RoleStaff); !errors.Is(err, ErrForbidden) {
			t.Errorf("unassigned staff error = %v, want ErrForbidden", err)
		}
	})
}

func TestUpdateBookingRescheduleWindow(t *testing.T) {
	repo := testRepo()
	svc := NewBookingService(repo, testConfig(), testLogger())
	customerID := uuid.New()

	now := time.Now()
	booking := &entity.Booking{
		Base:              entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingNumber:     "DC202608290043",
		CustomerID:        customerID,
		ServiceAddress:    "12 Rose Garden Lane, Sector 9",
		ScheduledDate:     now.Add(3 * time.Hour), // inside the 4h reschedule cutoff
		ScheduledTimeSlot: "14:00-16:00",
		Status:            entity.BookingStatusConfirmed,
	}
	if err := repo.Booking.Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	newSlot := "16:00-18:00"
	_, err := svc.UpdateBooking(context.Background(), booking.ID.String(), customerID, &request.UpdateBookingRequest{
		ScheduledTimeSlot: &newSlot,
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("error = %v, want ErrStateConflict", err)
	}

	// Address-only edits are not reschedules and still go through.
	newAddress := "44 Lakeview Apartments, Tower B"
	resp, err := svc.UpdateBooking(context.Background(), booking.ID.String(), customerID, &request.UpdateBookingRequest{
		ServiceAddress: &newAddress,
	})
	if err != nil {
		t.Fatalf("UpdateBooking address: %v", err)
	}
	if resp.ServiceAddress != newAddress {
		t.Errorf("address = %s, want %s", resp.ServiceAddress, newAddress)
	}
}
