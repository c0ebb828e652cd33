package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/internal/dto/request"
	"dustclean/internal/dto/response"
	"dustclean/pkg/gateway"
	"dustclean/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const gatewayName = "razorpay"

type PaymentService interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, req *request.CreateOrderRequest) (*response.CheckoutOrderResponse, error)
	VerifyPayment(ctx context.Context, customerID uuid.UUID, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	GetPayment(ctx context.Context, paymentID string, actorID uuid.UUID, role entity.UserRole) (*response.PaymentResponse, error)
	ListPaymentsForBooking(ctx context.Context, bookingID string, actorID uuid.UUID, role entity.UserRole) ([]response.PaymentResponse, error)
	ProcessRefund(ctx context.Context, paymentID string, actorID uuid.UUID, req *request.RefundRequest) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo    *repository.Repository
	gateway gateway.API
	config  *utils.Config
	log     *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gw gateway.API, config *utils.Config, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gw,
		config:  config,
		log:     log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, customerID uuid.UUID, req *request.CreateOrderRequest) (*response.CheckoutOrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id %s", ErrValidation, req.BookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", req.BookingID, ErrNotFound)
	}
	if booking.CustomerID != customerID {
		return nil, fmt.Errorf("booking %s: %w", req.BookingID, ErrForbidden)
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is %s, payment requires confirmed: %w", req.BookingID, booking.Status, ErrStateConflict)
	}
	if req.Amount != booking.Total {
		return nil, fmt.Errorf("%w: amount %.2f does not match booking total %.2f", ErrValidation, req.Amount, booking.Total)
	}

	order, err := s.gateway.CreateOrder(ctx, booking.Total, s.config.Booking.Currency, booking.BookingNumber, map[string]string{
		"booking_id":  booking.ID.String(),
		"customer_id": customerID.String(),
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, fmt.Errorf("create gateway order: %w", ErrGatewayUnavailable)
		}
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	now := time.Now()
	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TransactionID:  utils.GenerateTransactionID(),
		BookingID:      booking.ID,
		CustomerID:     customerID,
		Amount:         booking.Total,
		Currency:       s.config.Booking.Currency,
		Gateway:        gatewayName,
		GatewayOrderID: &order.ID,
		Status:         entity.PaymentStatusInitiated,
	}

	created, err := s.repo.Payment.CreateInitiated(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("booking %s: %w", req.BookingID, ErrPaymentAlreadyDone)
	}

	s.log.Info("Payment order created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("gateway_order_id", order.ID),
		zap.Float64("amount", payment.Amount),
	)

	return &response.CheckoutOrderResponse{
		OrderID:   order.ID,
		PaymentID: payment.ID.String(),
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, customerID uuid.UUID, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// The signature check comes first: on mismatch nothing is read or
	// written beyond this point.
	if !gateway.VerifyCheckoutSignature(s.config.Gateway.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn("Checkout signature rejected",
			zap.String("gateway_order_id", req.OrderID),
		)
		return nil, fmt.Errorf("order %s: %w", req.OrderID, ErrSignatureVerification)
	}

	payment, err := s.repo.Payment.FindByGatewayOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("payment for order %s: %w", req.OrderID, ErrNotFound)
	}
	if payment.CustomerID != customerID {
		return nil, fmt.Errorf("payment for order %s: %w", req.OrderID, ErrForbidden)
	}

	if err := s.capture(ctx, payment, req.PaymentID); err != nil {
		return nil, err
	}

	s.log.Info("Payment verified",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", payment.BookingID.String()),
	)

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// capture promotes the payment to success and moves its booking to assigned.
// Both writes are guarded by current-state predicates, so replays (webhook
// plus synchronous verify, in either order) settle on the same end state.
func (s *paymentService) capture(ctx context.Context, payment *entity.Payment, gatewayTransactionID string) error {
	if payment.GatewayOrderID == nil {
		return fmt.Errorf("payment %s has no gateway order: %w", payment.ID.String(), ErrStateConflict)
	}

	captured, err := s.repo.Payment.MarkCaptured(ctx, *payment.GatewayOrderID, gatewayTransactionID)
	if err != nil {
		return fmt.Errorf("mark payment captured: %w", err)
	}
	if captured {
		payment.Status = entity.PaymentStatusSuccess
		payment.GatewayTransactionID = &gatewayTransactionID
	}

	if _, err := s.repo.Booking.UpdateStatusFrom(ctx, payment.BookingID, entity.BookingStatusAssigned,
		[]entity.BookingStatus{entity.BookingStatusConfirmed}); err != nil {
		return fmt.Errorf("advance booking after capture: %w", err)
	}

	if err := s.repo.Booking.SetPaymentID(ctx, payment.BookingID, payment.ID); err != nil {
		return fmt.Errorf("link payment to booking: %w", err)
	}

	return nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !gateway.VerifyWebhookSignature(s.config.Gateway.WebhookSecret, body, signature) {
		s.log.Warn("Webhook signature rejected")
		return fmt.Errorf("webhook: %w", ErrSignatureVerification)
	}

	event, err := gateway.ParseWebhookEvent(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	payment, err := s.repo.Payment.FindByGatewayOrderID(ctx, event.Payload.OrderID)
	if err != nil {
		return fmt.Errorf("find payment for webhook: %w", err)
	}
	if payment == nil {
		return fmt.Errorf("payment for order %s: %w", event.Payload.OrderID, ErrNotFound)
	}

	switch event.Event {
	case gateway.EventPaymentCaptured:
		if err := s.capture(ctx, payment, event.Payload.PaymentID); err != nil {
			return err
		}

	case gateway.EventPaymentFailed:
		// Guarded update: a failure delivered after a capture matches no
		// row and is dropped.
		moved, err := s.repo.Payment.MarkFailed(ctx, event.Payload.OrderID)
		if err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		if !moved {
			s.log.Info("Dropped stale payment.failed event",
				zap.String("gateway_order_id", event.Payload.OrderID),
			)
		}

	case gateway.EventRefundProcessed:
		if event.Payload.RefundID == "" {
			return fmt.Errorf("%w: refund event missing refund_id", ErrValidation)
		}
		applied, err := s.repo.Payment.ApplyRefund(ctx, payment.ID,
			gateway.ToMajorUnits(event.Payload.Amount), event.Payload.RefundID, event.Payload.Reason)
		if err != nil {
			return fmt.Errorf("apply webhook refund: %w", err)
		}
		if !applied {
			s.log.Info("Dropped replayed refund event",
				zap.String("refund_id", event.Payload.RefundID),
			)
		}

	default:
		s.log.Info("Ignored webhook event", zap.String("event", event.Event))
	}

	s.log.Info("Webhook processed",
		zap.String("event", event.Event),
		zap.String("gateway_order_id", event.Payload.OrderID),
	)

	return nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID string, actorID uuid.UUID, role entity.UserRole) (*response.PaymentResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id %s", ErrValidation, paymentID)
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	if role != entity.RoleAdmin && payment.CustomerID != actorID {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrForbidden)
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) ListPaymentsForBooking(ctx context.Context, bookingID string, actorID uuid.UUID, role entity.UserRole) ([]response.PaymentResponse, error) {
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
	if role != entity.RoleAdmin && booking.CustomerID != actorID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrForbidden)
	}

	payments, err := s.repo.Payment.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	paymentResponses := make([]response.PaymentResponse, len(payments))
	for i, payment := range payments {
		paymentResponses[i] = response.PaymentToResponse(payment)
	}

	return paymentResponses, nil
}

func (s *paymentService) ProcessRefund(ctx context.Context, paymentID string, actorID uuid.UUID, req *request.RefundRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id %s", ErrValidation, paymentID)
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}

	if !payment.IsRefundable() {
		return nil, fmt.Errorf("payment %s in status %s: %w", paymentID, payment.Status, ErrNotRefundable)
	}
	amount := utils.Round2(req.Amount)
	if amount > payment.RemainingRefundable() {
		return nil, fmt.Errorf("refund %.2f exceeds remaining %.2f on payment %s: %w",
			amount, payment.RemainingRefundable(), paymentID, ErrRefundExceedsPayment)
	}
	if payment.GatewayTransactionID == nil {
		return nil, fmt.Errorf("payment %s has no gateway transaction: %w", paymentID, ErrNotRefundable)
	}

	refund, err := s.gateway.RefundPayment(ctx, *payment.GatewayTransactionID, amount)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, fmt.Errorf("gateway refund: %w", ErrGatewayUnavailable)
		}
		return nil, fmt.Errorf("gateway refund: %w", err)
	}

	// The gateway refund ID is the idempotency key: re-applying the same
	// refund matches no row and changes nothing.
	applied, err := s.repo.Payment.ApplyRefund(ctx, payment.ID, amount, refund.ID, req.Reason)
	if err != nil {
		return nil, fmt.Errorf("apply refund: %w", err)
	}
	if !applied {
		s.log.Info("Refund already applied",
			zap.String("payment_id", paymentID),
			zap.String("refund_id", refund.ID),
		)
	} else {
		// A refunded booking ends up cancelled with the returned amount on
		// record. Visits already in progress or finished keep their status.
		cancellation := &entity.Cancellation{
			CancelledBy:  actorID,
			CancelledAt:  time.Now(),
			Reason:       req.Reason,
			RefundAmount: amount,
		}
		cancelled, err := s.repo.Booking.Cancel(ctx, payment.BookingID, cancellation,
			entity.CancellableStatuses)
		if err != nil {
			return nil, fmt.Errorf("cancel booking after refund: %w", err)
		}
		if !cancelled {
			s.log.Warn("Booking not cancellable after refund",
				zap.String("booking_id", payment.BookingID.String()),
			)
		}

		s.log.Info("Refund processed",
			zap.String("payment_id", paymentID),
			zap.String("refund_id", refund.ID),
			zap.Float64("amount", amount),
		)
	}

	updated, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload payment: %w", err)
	}

	resp := response.PaymentToResponse(updated)
	return &resp, nil
}
