package usecase

import (
	"context"
	"fmt"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/pkg/gateway"
	"dustclean/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory repository fakes. They mirror the guard semantics of the SQL
// implementations (conditional writes reporting whether a row matched) so
// the services exercise the same idempotence paths as in production.

func testConfig() *utils.Config {
	return &utils.Config{
		Session: utils.SessionConfig{ExpiryHours: 24},
		Booking: utils.BookingConfig{
			TaxRatePercent:        18,
			Currency:              "INR",
			CancelWindowHours:     2,
			RescheduleWindowHours: 4,
		},
		Gateway: utils.GatewayConfig{
			KeySecret:     "checkout-secret",
			WebhookSecret: "webhook-secret",
		},
	}
}

func testRepo() *repository.Repository {
	return &repository.Repository{
		User:    &fakeUserRepo{users: map[uuid.UUID]*entity.User{}},
		Session: &fakeSessionRepo{sessions: map[string]*entity.Session{}},
		Service: &fakeServiceRepo{services: map[uuid.UUID]*entity.Service{}},
		Booking: &fakeBookingRepo{bookings: map[uuid.UUID]*entity.Booking{}, daySeq: map[string]int64{}},
		Payment: &fakePaymentRepo{payments: map[uuid.UUID]*entity.Payment{}, appliedRefunds: map[string]bool{}},
		Coupon:  &fakeCouponRepo{coupons: map[string]*entity.Coupon{}},
	}
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*entity.Session
}

func (f *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	f.sessions[session.Token.String()] = session
	return nil
}

func (f *fakeSessionRepo) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	s, ok := f.sessions[token]
	if !ok || s.RevokedAt != nil || time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSessionRepo) Revoke(_ context.Context, token string) error {
	if s, ok := f.sessions[token]; ok {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for token, s := range f.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

type fakeServiceRepo struct {
	services map[uuid.UUID]*entity.Service
}

func (f *fakeServiceRepo) Create(_ context.Context, service *entity.Service) error {
	f.services[service.ID] = service
	return nil
}

func (f *fakeServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Service, error) {
	return f.services[id], nil
}

func (f *fakeServiceRepo) FindBySlug(_ context.Context, slug string) (*entity.Service, error) {
	for _, s := range f.services {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeServiceRepo) FindAll(_ context.Context, activeOnly bool, limit, offset int) ([]*entity.Service, error) {
	var out []*entity.Service
	for _, s := range f.services {
		if !activeOnly || s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeServiceRepo) CountAll(_ context.Context, activeOnly bool) (int64, error) {
	services, _ := f.FindAll(context.Background(), activeOnly, 0, 0)
	return int64(len(services)), nil
}

func (f *fakeServiceRepo) Update(_ context.Context, service *entity.Service) error {
	f.services[service.ID] = service
	return nil
}

func (f *fakeServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.services, id)
	return nil
}

type fakeBookingRepo struct {
	bookings map[uuid.UUID]*entity.Booking
	daySeq   map[string]int64
}

func (f *fakeBookingRepo) NextDailySequence(_ context.Context, day time.Time) (int64, error) {
	key := day.Format("2006-01-02")
	f.daySeq[key]++
	return f.daySeq[key], nil
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	clone := *booking
	f.bookings[booking.ID] = &clone
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	if b, ok := f.bookings[id]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindByBookingNumber(_ context.Context, number string) (*entity.Booking, error) {
	for _, b := range f.bookings {
		if b.BookingNumber == number {
			clone := *b
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.CustomerID == customerID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CountByCustomerID(_ context.Context, customerID uuid.UUID) (int64, error) {
	bookings, _ := f.FindByCustomerID(context.Background(), customerID, 0, 0)
	return int64(len(bookings)), nil
}

func (f *fakeBookingRepo) FindAll(_ context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range f.bookings {
		if status == nil || b.Status == *status {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CountAll(_ context.Context, status *entity.BookingStatus) (int64, error) {
	bookings, _ := f.FindAll(context.Background(), status, 0, 0)
	return int64(len(bookings)), nil
}

func (f *fakeBookingRepo) UpdateDetails(_ context.Context, booking *entity.Booking) error {
	stored, ok := f.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("booking %s not found", booking.ID.String())
	}
	stored.ServiceAddress = booking.ServiceAddress
	stored.ScheduledDate = booking.ScheduledDate
	stored.ScheduledTimeSlot = booking.ScheduledTimeSlot
	stored.SpecialInstructions = booking.SpecialInstructions
	stored.UpdatedAt = booking.UpdatedAt
	return nil
}

func (f *fakeBookingRepo) UpdateStatusFrom(_ context.Context, id uuid.UUID, to entity.BookingStatus, from []entity.BookingStatus) (bool, error) {
	b, ok := f.bookings[id]
	if !ok || !statusIn(b.Status, from) {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id uuid.UUID, cancellation *entity.Cancellation, from []entity.BookingStatus) (bool, error) {
	b, ok := f.bookings[id]
	if !ok || !statusIn(b.Status, from) {
		return false, nil
	}
	b.Status = entity.BookingStatusCancelled
	b.Cancellation = cancellation
	return true, nil
}

func (f *fakeBookingRepo) AssignStaff(_ context.Context, id uuid.UUID, staff []entity.StaffAssignment) (bool, error) {
	b, ok := f.bookings[id]
	if !ok || (b.Status != entity.BookingStatusConfirmed && b.Status != entity.BookingStatusAssigned) {
		return false, nil
	}
	b.AssignedStaff = staff
	b.Status = entity.BookingStatusAssigned
	return true, nil
}

func (f *fakeBookingRepo) SetPaymentID(_ context.Context, id, paymentID uuid.UUID) error {
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id.String())
	}
	b.PaymentID = &paymentID
	return nil
}

func statusIn(status entity.BookingStatus, set []entity.BookingStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*entity.Payment
	// mirrors the payment_refunds ledger: one entry per applied refund ID
	appliedRefunds map[string]bool
}

func (f *fakePaymentRepo) CreateInitiated(_ context.Context, payment *entity.Payment) (bool, error) {
	for _, p := range f.payments {
		if p.BookingID == payment.BookingID && p.Status == entity.PaymentStatusSuccess {
			return false, nil
		}
	}
	clone := *payment
	f.payments[payment.ID] = &clone
	return true, nil
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	if p, ok := f.payments[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindByGatewayOrderID(_ context.Context, orderID string) (*entity.Payment, error) {
	for _, p := range f.payments {
		if p.GatewayOrderID != nil && *p.GatewayOrderID == orderID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range f.payments {
		if p.BookingID == bookingID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) MarkCaptured(_ context.Context, gatewayOrderID, gatewayTransactionID string) (bool, error) {
	for _, p := range f.payments {
		if p.GatewayOrderID == nil || *p.GatewayOrderID != gatewayOrderID {
			continue
		}
		switch p.Status {
		case entity.PaymentStatusInitiated, entity.PaymentStatusPending, entity.PaymentStatusFailed:
			p.Status = entity.PaymentStatusSuccess
			p.GatewayTransactionID = &gatewayTransactionID
			return true, nil
		}
		return false, nil
	}
	return false, nil
}

func (f *fakePaymentRepo) MarkFailed(_ context.Context, gatewayOrderID string) (bool, error) {
	for _, p := range f.payments {
		if p.GatewayOrderID == nil || *p.GatewayOrderID != gatewayOrderID {
			continue
		}
		switch p.Status {
		case entity.PaymentStatusInitiated, entity.PaymentStatusPending:
			p.Status = entity.PaymentStatusFailed
			return true, nil
		}
		return false, nil
	}
	return false, nil
}

func (f *fakePaymentRepo) ApplyRefund(_ context.Context, id uuid.UUID, amount float64, refundTransactionID, reason string) (bool, error) {
	p, ok := f.payments[id]
	if !ok {
		return false, nil
	}
	if p.Status != entity.PaymentStatusSuccess {
		return false, nil
	}
	if p.RefundAmount+amount > p.Amount {
		return false, nil
	}
	if f.appliedRefunds[refundTransactionID] {
		return false, nil
	}
	f.appliedRefunds[refundTransactionID] = true
	p.RefundAmount += amount
	p.IsRefunded = true
	p.RefundTransactionID = &refundTransactionID
	p.RefundReason = &reason
	now := time.Now()
	p.RefundedAt = &now
	if p.RefundAmount >= p.Amount {
		p.Status = entity.PaymentStatusRefunded
	}
	return true, nil
}

type fakeCouponRepo struct {
	coupons map[string]*entity.Coupon
}

func (f *fakeCouponRepo) Create(_ context.Context, coupon *entity.Coupon) error {
	f.coupons[coupon.Code] = coupon
	return nil
}

func (f *fakeCouponRepo) FindByCode(_ context.Context, code string) (*entity.Coupon, error) {
	if c, ok := f.coupons[code]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeCouponRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Coupon, error) {
	var out []*entity.Coupon
	for _, c := range f.coupons {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeCouponRepo) Update(_ context.Context, coupon *entity.Coupon) error {
	f.coupons[coupon.Code] = coupon
	return nil
}

func (f *fakeCouponRepo) Redeem(_ context.Context, code string) (*entity.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok || !c.IsValid(time.Now()) {
		return nil, nil
	}
	c.UsedCount++
	clone := *c
	return &clone, nil
}

func (f *fakeCouponRepo) Unredeem(_ context.Context, code string) error {
	if c, ok := f.coupons[code]; ok && c.UsedCount > 0 {
		c.UsedCount--
	}
	return nil
}

// fakeGateway records calls and hands out deterministic IDs.
type fakeGateway struct {
	orders      int
	refunds     int
	failNext    error
	lastOrder   *gateway.Order
	lastRefund  *gateway.Refund
	refundCalls []float64
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount float64, currency, receipt string, _ map[string]string) (*gateway.Order, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	f.orders++
	order := &gateway.Order{
		ID:       fmt.Sprintf("order_%03d", f.orders),
		Amount:   int64(amount * 100),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	f.lastOrder = order
	return order, nil
}

func (f *fakeGateway) RefundPayment(_ context.Context, gatewayPaymentID string, amount float64) (*gateway.Refund, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	f.refunds++
	f.refundCalls = append(f.refundCalls, amount)
	refund := &gateway.Refund{
		ID:        fmt.Sprintf("rfnd_%03d", f.refunds),
		PaymentID: gatewayPaymentID,
		Amount:    int64(amount * 100),
		Status:    "processed",
	}
	f.lastRefund = refund
	return refund, nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
