package repository

import (
	"context"
	"fmt"

	"dustclean/internal/data/entity"
	"dustclean/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	// CreateInitiated inserts the payment unless an unrefunded successful
	// payment already exists for the booking. The insert and the guard run
	// in one statement so concurrent checkouts cannot both pass.
	CreateInitiated(ctx context.Context, payment *entity.Payment) (bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error)

	// MarkCaptured promotes the payment to success, recording the gateway
	// transaction ID. Only initiated, pending, or failed payments move; a
	// redelivered capture is a no-op and a capture can never be undone.
	MarkCaptured(ctx context.Context, gatewayOrderID, gatewayTransactionID string) (bool, error)

	// MarkFailed moves initiated or pending payments to failed. A failure
	// arriving after a capture does not match and is dropped.
	MarkFailed(ctx context.Context, gatewayOrderID string) (bool, error)

	// ApplyRefund accumulates the refund amount. Each applied refund is
	// recorded in payment_refunds keyed on the gateway's refund ID, so a
	// redelivery of any past refund, however late, changes nothing. Status
	// flips to refunded only when the full amount has gone back.
	ApplyRefund(ctx context.Context, id uuid.UUID, amount float64, refundTransactionID, reason string) (bool, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, transaction_id, booking_id, customer_id, amount, currency, payment_method,
	gateway, gateway_order_id, gateway_transaction_id, status, is_refunded, refund_amount,
	refund_transaction_id, refunded_at, refund_reason, created_at, updated_at`

func (r *paymentRepository) scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment

	err := row.Scan(
		&payment.ID,
		&payment.TransactionID,
		&payment.BookingID,
		&payment.CustomerID,
		&payment.Amount,
		&payment.Currency,
		&payment.PaymentMethod,
		&payment.Gateway,
		&payment.GatewayOrderID,
		&payment.GatewayTransactionID,
		&payment.Status,
		&payment.IsRefunded,
		&payment.RefundAmount,
		&payment.RefundTransactionID,
		&payment.RefundedAt,
		&payment.RefundReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) CreateInitiated(ctx context.Context, payment *entity.Payment) (bool, error) {
	query := `
		INSERT INTO payments (id, transaction_id, booking_id, customer_id, amount, currency,
			payment_method, gateway, gateway_order_id, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, 'initiated', $10, $11
		WHERE NOT EXISTS (
			SELECT 1 FROM payments WHERE booking_id = $3 AND status = 'success'
		)
	`

	result, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.TransactionID,
		payment.BookingID,
		payment.CustomerID,
		payment.Amount,
		payment.Currency,
		payment.PaymentMethod,
		payment.Gateway,
		payment.GatewayOrderID,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return false, fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := r.scanPayment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id = $1`

	payment, err := r.scanPayment(r.db.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by gateway order ID",
			zap.Error(err),
			zap.String("gateway_order_id", orderID),
		)
		return nil, fmt.Errorf("find payment by gateway order ID %s: %w", orderID, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payments by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payments by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

func (r *paymentRepository) MarkCaptured(ctx context.Context, gatewayOrderID, gatewayTransactionID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'success', gateway_transaction_id = $2, updated_at = NOW()
		WHERE gateway_order_id = $1 AND status IN ('initiated', 'pending', 'failed')
	`

	result, err := r.db.Exec(ctx, query, gatewayOrderID, gatewayTransactionID)
	if err != nil {
		r.log.Error("Failed to mark payment captured",
			zap.Error(err),
			zap.String("gateway_order_id", gatewayOrderID),
		)
		return false, fmt.Errorf("mark payment captured for order %s: %w", gatewayOrderID, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, gatewayOrderID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'failed', updated_at = NOW()
		WHERE gateway_order_id = $1 AND status IN ('initiated', 'pending')
	`

	result, err := r.db.Exec(ctx, query, gatewayOrderID)
	if err != nil {
		r.log.Error("Failed to mark payment failed",
			zap.Error(err),
			zap.String("gateway_order_id", gatewayOrderID),
		)
		return false, fmt.Errorf("mark payment failed for order %s: %w", gatewayOrderID, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) ApplyRefund(ctx context.Context, id uuid.UUID, amount float64, refundTransactionID, reason string) (bool, error) {
	// The ledger insert and the balance update run as one statement. The
	// unique refund_transaction_id absorbs replays: a duplicate hits the
	// ON CONFLICT, the CTE yields no row, and the payment is untouched.
	query := `
		WITH applied AS (
			INSERT INTO payment_refunds (id, payment_id, refund_transaction_id, amount, reason, created_at)
			SELECT $5, $1, $3, $2, $4, NOW()
			WHERE EXISTS (
				SELECT 1 FROM payments
				WHERE id = $1 AND status = 'success' AND refund_amount + $2 <= amount
			)
			ON CONFLICT (refund_transaction_id) DO NOTHING
			RETURNING payment_id
		)
		UPDATE payments p
		SET refund_amount = p.refund_amount + $2,
		    is_refunded = TRUE,
		    refund_transaction_id = $3,
		    refunded_at = NOW(),
		    refund_reason = $4,
		    status = CASE WHEN p.refund_amount + $2 >= p.amount THEN 'refunded' ELSE p.status END,
		    updated_at = NOW()
		FROM applied
		WHERE p.id = applied.payment_id
	`

	result, err := r.db.Exec(ctx, query, id, amount, refundTransactionID, reason, uuid.New())
	if err != nil {
		r.log.Error("Failed to apply refund",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.Float64("amount", amount),
		)
		return false, fmt.Errorf("apply refund to payment %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
