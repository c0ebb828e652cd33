package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// NextDailySequence atomically increments and returns the per-day
	// booking counter. Safe under concurrent creations on the same day.
	NextDailySequence(ctx context.Context, day time.Time) (int64, error)

	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByBookingNumber(ctx context.Context, number string) (*entity.Booking, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error)
	CountAll(ctx context.Context, status *entity.BookingStatus) (int64, error)

	UpdateDetails(ctx context.Context, booking *entity.Booking) error

	// UpdateStatusFrom moves the booking to the target status only when its
	// current status is one of from. Returns false when no row matched,
	// which makes redelivered transitions no-ops.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, to entity.BookingStatus, from []entity.BookingStatus) (bool, error)

	// Cancel records the cancellation and flips the status in one statement.
	Cancel(ctx context.Context, id uuid.UUID, cancellation *entity.Cancellation, from []entity.BookingStatus) (bool, error)

	// AssignStaff stores the staff set and moves confirmed -> assigned.
	AssignStaff(ctx context.Context, id uuid.UUID, staff []entity.StaffAssignment) (bool, error)

	SetPaymentID(ctx context.Context, id, paymentID uuid.UUID) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, booking_number, customer_id, line_items, service_address, scheduled_date,
	scheduled_time_slot, special_instructions, subtotal, tax, discount, total, coupon_code,
	status, assigned_staff, cancellation, payment_id, created_at, updated_at`

func (r *bookingRepository) scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	var lineItems, assignedStaff, cancellation []byte

	err := row.Scan(
		&booking.ID,
		&booking.BookingNumber,
		&booking.CustomerID,
		&lineItems,
		&booking.ServiceAddress,
		&booking.ScheduledDate,
		&booking.ScheduledTimeSlot,
		&booking.SpecialInstructions,
		&booking.Subtotal,
		&booking.Tax,
		&booking.Discount,
		&booking.Total,
		&booking.CouponCode,
		&booking.Status,
		&assignedStaff,
		&cancellation,
		&booking.PaymentID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &booking.LineItems); err != nil {
			return nil, fmt.Errorf("decode booking line items: %w", err)
		}
	}
	if len(assignedStaff) > 0 {
		if err := json.Unmarshal(assignedStaff, &booking.AssignedStaff); err != nil {
			return nil, fmt.Errorf("decode booking assigned staff: %w", err)
		}
	}
	if len(cancellation) > 0 {
		if err := json.Unmarshal(cancellation, &booking.Cancellation); err != nil {
			return nil, fmt.Errorf("decode booking cancellation: %w", err)
		}
	}

	return &booking, nil
}

func (r *bookingRepository) NextDailySequence(ctx context.Context, day time.Time) (int64, error) {
	query := `
		INSERT INTO booking_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = booking_counters.seq + 1
		RETURNING seq
	`

	var seq int64
	err := r.db.QueryRow(ctx, query, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		r.log.Error("Failed to advance booking counter",
			zap.Error(err),
			zap.String("day", day.Format("2006-01-02")),
		)
		return 0, fmt.Errorf("next booking sequence for %s: %w", day.Format("2006-01-02"), err)
	}

	return seq, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	lineItems, err := json.Marshal(booking.LineItems)
	if err != nil {
		return fmt.Errorf("encode booking line items: %w", err)
	}

	query := `
		INSERT INTO bookings (id, booking_number, customer_id, line_items, service_address,
			scheduled_date, scheduled_time_slot, special_instructions, subtotal, tax, discount,
			total, coupon_code, status, assigned_staff, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, '[]', $15, $16)
	`

	_, err = r.db.Exec(ctx, query,
		booking.ID,
		booking.BookingNumber,
		booking.CustomerID,
		lineItems,
		booking.ServiceAddress,
		booking.ScheduledDate,
		booking.ScheduledTimeSlot,
		booking.SpecialInstructions,
		booking.Subtotal,
		booking.Tax,
		booking.Discount,
		booking.Total,
		booking.CouponCode,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_number", booking.BookingNumber),
			zap.String("customer_id", booking.CustomerID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.BookingNumber, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := r.scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByBookingNumber(ctx context.Context, number string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = $1`

	booking, err := r.scanBooking(r.db.QueryRow(ctx, query, number))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by number",
			zap.Error(err),
			zap.String("booking_number", number),
		)
		return nil, fmt.Errorf("find booking by number %s: %w", number, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return nil, fmt.Errorf("find bookings by customer ID %s: %w", customerID.String(), err)
	}
	defer rows.Close()

	return r.collectBookings(rows)
}

func (r *bookingRepository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE customer_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, customerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return 0, fmt.Errorf("count bookings by customer ID %s: %w", customerID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindAll(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings", zap.Error(err))
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()

	return r.collectBookings(rows)
}

func (r *bookingRepository) CountAll(ctx context.Context, status *entity.BookingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateDetails(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET service_address = $2, scheduled_date = $3, scheduled_time_slot = $4,
		    special_instructions = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.ServiceAddress,
		booking.ScheduledDate,
		booking.ScheduledTimeSlot,
		booking.SpecialInstructions,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update booking details",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", booking.ID.String())
	}

	return nil
}

func (r *bookingRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, to entity.BookingStatus, from []entity.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1 AND status = ANY($3)`

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	result, err := r.db.Exec(ctx, query, id, to, fromStrs)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(to)),
		)
		return false, fmt.Errorf("update booking %s status to %s: %w", id.String(), string(to), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID, cancellation *entity.Cancellation, from []entity.BookingStatus) (bool, error) {
	payload, err := json.Marshal(cancellation)
	if err != nil {
		return false, fmt.Errorf("encode cancellation: %w", err)
	}

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	query := `
		UPDATE bookings
		SET status = 'cancelled', cancellation = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`

	result, err := r.db.Exec(ctx, query, id, payload, fromStrs)
	if err != nil {
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("cancel booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) AssignStaff(ctx context.Context, id uuid.UUID, staff []entity.StaffAssignment) (bool, error) {
	payload, err := json.Marshal(staff)
	if err != nil {
		return false, fmt.Errorf("encode staff assignments: %w", err)
	}

	query := `
		UPDATE bookings
		SET assigned_staff = $2, status = 'assigned', updated_at = NOW()
		WHERE id = $1 AND status IN ('confirmed', 'assigned')
	`

	result, err := r.db.Exec(ctx, query, id, payload)
	if err != nil {
		r.log.Error("Failed to assign staff",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("assign staff to booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetPaymentID(ctx context.Context, id, paymentID uuid.UUID) error {
	query := `UPDATE bookings SET payment_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, paymentID)
	if err != nil {
		r.log.Error("Failed to set booking payment",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_id", paymentID.String()),
		)
		return fmt.Errorf("set payment on booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}
