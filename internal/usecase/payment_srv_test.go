package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/internal/dto/request"
	"dustclean/pkg/gateway"

	"github.com/google/uuid"
)

func seedConfirmedBooking(t *testing.T, repo *repository.Repository, customerID uuid.UUID, total float64) *entity.Booking {
	t.Helper()

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingNumber:     "DC202608290001",
		CustomerID:        customerID,
		ServiceAddress:    "12 Rose Garden Lane, Sector 9",
		ScheduledDate:     now.Add(48 * time.Hour),
		ScheduledTimeSlot: "10:00-12:00",
		Subtotal:          total / 1.18,
		Tax:               total - total/1.18,
		Total:             total,
		Status:            entity.BookingStatusConfirmed,
	}
	if err := repo.Booking.Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

func signWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookBody(t *testing.T, event, orderID, paymentID, refundID string, amount int64) []byte {
	t.Helper()

	body, err := json.Marshal(gateway.WebhookEvent{
		Event: event,
		Payload: gateway.WebhookPayload{
			OrderID:   orderID,
			PaymentID: paymentID,
			RefundID:  refundID,
			Amount:    amount,
		},
	})
	if err != nil {
		t.Fatalf("marshal webhook body: %v", err)
	}
	return body
}

func TestCreateOrderAndVerify(t *testing.T) {
	repo := testRepo()
	gw := &fakeGateway{}
	config := testConfig()
	svc := NewPaymentService(repo, gw, config, testLogger())

	customerID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 1178.82)

	order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    1178.82,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.OrderID != "order_001" {
		t.Errorf("order ID = %q, want order_001", order.OrderID)
	}
	if order.Amount != 1178.82 {
		t.Errorf("order amount = %v, want 1178.82", order.Amount)
	}

	stored, _ := repo.Payment.FindByGatewayOrderID(context.Background(), order.OrderID)
	if stored == nil || stored.Status != entity.PaymentStatusInitiated {
		t.Fatalf("payment after CreateOrder = %+v, want status initiated", stored)
	}

	sig := gateway.SignCheckout(config.Gateway.KeySecret, order.OrderID, "pay_abc")
	verified, err := svc.VerifyPayment(context.Background(), customerID, &request.VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_abc",
		Signature: sig,
		BookingID: booking.ID.String(),
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if verified.Status != entity.PaymentStatusSuccess {
		t.Errorf("payment status after verify = %s, want success", verified.Status)
	}

	updatedBooking, _ := repo.Booking.FindByID(context.Background(), booking.ID)
	if updatedBooking.Status != entity.BookingStatusAssigned {
		t.Errorf("booking status after verify = %s, want assigned", updatedBooking.Status)
	}
	if updatedBooking.PaymentID == nil {
		t.Error("booking payment link not set after verify")
	}
}

func TestVerifyPaymentRejectsBadSignatureWithoutMutation(t *testing.T) {
	repo := testRepo()
	config := testConfig()
	svc := NewPaymentService(repo, &fakeGateway{}, config, testLogger())

	customerID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 500)

	order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    500,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = svc.VerifyPayment(context.Background(), customerID, &request.VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_abc",
		Signature: "deadbeef",
		BookingID: booking.ID.String(),
	})
	if !errors.Is(err, ErrSignatureVerification) {
		t.Fatalf("VerifyPayment error = %v, want ErrSignatureVerification", err)
	}

	payment, _ := repo.Payment.FindByGatewayOrderID(context.Background(), order.OrderID)
	if payment.Status != entity.PaymentStatusInitiated {
		t.Errorf("payment status after rejected verify = %s, want initiated", payment.Status)
	}
	stored, _ := repo.Booking.FindByID(context.Background(), booking.ID)
	if stored.Status != entity.BookingStatusConfirmed {
		t.Errorf("booking status after rejected verify = %s, want confirmed", stored.Status)
	}
}

func TestCreateOrderGuards(t *testing.T) {
	repo := testRepo()
	gw := &fakeGateway{}
	config := testConfig()
	svc := NewPaymentService(repo, gw, config, testLogger())

	customerID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 1000)

	t.Run("amount must match booking total", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
			BookingID: booking.ID.String(),
			Amount:    999,
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("other customers cannot pay", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), uuid.New(), &request.CreateOrderRequest{
			BookingID: booking.ID.String(),
			Amount:    1000,
		})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("gateway outage surfaces as unavailable", func(t *testing.T) {
		gw.failNext = gateway.ErrUnavailable
		_, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
			BookingID: booking.ID.String(),
			Amount:    1000,
		})
		if !errors.Is(err, ErrGatewayUnavailable) {
			t.Errorf("error = %v, want ErrGatewayUnavailable", err)
		}
	})

	t.Run("paid booking cannot be paid again", func(t *testing.T) {
		order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
			BookingID: booking.ID.String(),
			Amount:    1000,
		})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if _, err := repo.Payment.MarkCaptured(context.Background(), order.OrderID, "pay_xyz"); err != nil {
			t.Fatalf("capture: %v", err)
		}

		_, err = svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
			BookingID: booking.ID.String(),
			Amount:    1000,
		})
		if !errors.Is(err, ErrPaymentAlreadyDone) {
			t.Errorf("error = %v, want ErrPaymentAlreadyDone", err)
		}
	})
}

func TestHandleWebhookCaptureIsIdempotent(t *testing.T) {
	repo := testRepo()
	config := testConfig()
	svc := NewPaymentService(repo, &fakeGateway{}, config, testLogger())

	customerID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 750)
	order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    750,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	body := webhookBody(t, gateway.EventPaymentCaptured, order.OrderID, "pay_wh", "", 75000)
	sig := signWebhookBody(config.Gateway.WebhookSecret, body)

	for i := 0; i < 3; i++ {
		if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
			t.Fatalf("HandleWebhook delivery %d: %v", i+1, err)
		}
	}

	payment, _ := repo.Payment.FindByGatewayOrderID(context.Background(), order.OrderID)
	if payment.Status != entity.PaymentStatusSuccess {
		t.Errorf("payment status after redeliveries = %s, want success", payment.Status)
	}

	// A late failure event must not override the capture.
	failBody := webhookBody(t, gateway.EventPaymentFailed, order.OrderID, "pay_wh", "", 0)
	if err := svc.HandleWebhook(context.Background(), failBody, signWebhookBody(config.Gateway.WebhookSecret, failBody)); err != nil {
		t.Fatalf("HandleWebhook failed event: %v", err)
	}
	payment, _ = repo.Payment.FindByGatewayOrderID(context.Background(), order.OrderID)
	if payment.Status != entity.PaymentStatusSuccess {
		t.Errorf("payment status after stale failure = %s, want success", payment.Status)
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	repo := testRepo()
	config := testConfig()
	svc := NewPaymentService(repo, &fakeGateway{}, config, testLogger())

	body := webhookBody(t, gateway.EventPaymentCaptured, "order_001", "pay_wh", "", 1000)
	err := svc.HandleWebhook(context.Background(), body, "not-a-signature")
	if !errors.Is(err, ErrSignatureVerification) {
		t.Fatalf("HandleWebhook error = %v, want ErrSignatureVerification", err)
	}
}

func TestProcessRefund(t *testing.T) {
	repo := testRepo()
	gw := &fakeGateway{}
	config := testConfig()
	svc := NewPaymentService(repo, gw, config, testLogger())

	customerID := uuid.New()
	adminID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 1000)
	order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    1000,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	sig := gateway.SignCheckout(config.Gateway.KeySecret, order.OrderID, "pay_ref")
	if _, err := svc.VerifyPayment(context.Background(), customerID, &request.VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_ref",
		Signature: sig,
		BookingID: booking.ID.String(),
	}); err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	t.Run("refund above amount is rejected", func(t *testing.T) {
		_, err := svc.ProcessRefund(context.Background(), order.PaymentID, adminID, &request.RefundRequest{
			Amount: 1500,
			Reason: "customer complaint",
		})
		if !errors.Is(err, ErrRefundExceedsPayment) {
			t.Fatalf("error = %v, want ErrRefundExceedsPayment", err)
		}
	})

	t.Run("partial refund keeps payment successful", func(t *testing.T) {
		resp, err := svc.ProcessRefund(context.Background(), order.PaymentID, adminID, &request.RefundRequest{
			Amount: 400,
			Reason: "late arrival",
		})
		if err != nil {
			t.Fatalf("ProcessRefund: %v", err)
		}
		if resp.Status != entity.PaymentStatusSuccess {
			t.Errorf("payment status = %s, want success", resp.Status)
		}
		if resp.Refund == nil || resp.Refund.RefundAmount != 400 {
			t.Errorf("refund = %+v, want amount 400", resp.Refund)
		}

		stored, _ := repo.Booking.FindByID(context.Background(), booking.ID)
		if stored.Status != entity.BookingStatusCancelled {
			t.Errorf("booking status after refund = %s, want cancelled", stored.Status)
		}
		if stored.Cancellation == nil || stored.Cancellation.RefundAmount != 400 {
			t.Errorf("booking cancellation = %+v, want refund 400", stored.Cancellation)
		}
	})

	t.Run("remaining refund flips status to refunded", func(t *testing.T) {
		resp, err := svc.ProcessRefund(context.Background(), order.PaymentID, adminID, &request.RefundRequest{
			Amount: 600,
			Reason: "full settlement",
		})
		if err != nil {
			t.Fatalf("ProcessRefund: %v", err)
		}
		if resp.Status != entity.PaymentStatusRefunded {
			t.Errorf("payment status = %s, want refunded", resp.Status)
		}
		if resp.Refund == nil || resp.Refund.RefundAmount != 1000 {
			t.Errorf("refund = %+v, want accumulated amount 1000", resp.Refund)
		}
	})

	t.Run("fully refunded payment cannot be refunded again", func(t *testing.T) {
		_, err := svc.ProcessRefund(context.Background(), order.PaymentID, adminID, &request.RefundRequest{
			Amount: 1,
			Reason: "once more",
		})
		if !errors.Is(err, ErrNotRefundable) {
			t.Fatalf("error = %v, want ErrNotRefundable", err)
		}
	})
}

func TestRefundWebhookReplayIsDropped(t *testing.T) {
	repo := testRepo()
	config := testConfig()
	svc := NewPaymentService(repo, &fakeGateway{}, config, testLogger())

	customerID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 800)
	order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    800,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := repo.Payment.MarkCaptured(context.Background(), order.OrderID, "pay_rr"); err != nil {
		t.Fatalf("capture: %v", err)
	}

	body := webhookBody(t, gateway.EventRefundProcessed, order.OrderID, "pay_rr", "rfnd_wh_1", 30000)
	sig := signWebhookBody(config.Gateway.WebhookSecret, body)
	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
			t.Fatalf("HandleWebhook delivery %d: %v", i+1, err)
		}
	}

	payment, _ := repo.Payment.FindByGatewayOrderID(context.Background(), order.OrderID)
	if payment.RefundAmount != 300 {
		t.Errorf("refund amount after replay = %v, want 300", payment.RefundAmount)
	}
	if payment.Status != entity.PaymentStatusSuccess {
		t.Errorf("payment status = %s, want success", payment.Status)
	}
}

// A replay arriving after other refunds have been applied in between must
// still be a no-op: every applied refund ID stays on record, not just the
// most recent one.
func TestRefundWebhookLateReplayIsDropped(t *testing.T) {
	repo := testRepo()
	config := testConfig()
	adminID := uuid.New()
	svc := NewPaymentService(repo, &fakeGateway{}, config, testLogger())

	customerID := uuid.New()
	booking := seedConfirmedBooking(t, repo, customerID, 800)
	order, err := svc.CreateOrder(context.Background(), customerID, &request.CreateOrderRequest{
		BookingID: booking.ID.String(),
		Amount:    800,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := repo.Payment.MarkCaptured(context.Background(), order.OrderID, "pay_lr"); err != nil {
		t.Fatalf("capture: %v", err)
	}

	first := webhookBody(t, gateway.EventRefundProcessed, order.OrderID, "pay_lr", "rfnd_wh_1", 10000)
	firstSig := signWebhookBody(config.Gateway.WebhookSecret, first)
	if err := svc.HandleWebhook(context.Background(), first, firstSig); err != nil {
		t.Fatalf("HandleWebhook first refund: %v", err)
	}

	// an unrelated partial refund lands in between
	if _, err := svc.ProcessRefund(context.Background(), order.PaymentID, adminID, &request.RefundRequest{
		Amount: 50,
		Reason: "goodwill",
	}); err != nil {
		t.Fatalf("ProcessRefund: %v", err)
	}

	// the gateway redelivers the first refund
	if err := svc.HandleWebhook(context.Background(), first, firstSig); err != nil {
		t.Fatalf("HandleWebhook redelivery: %v", err)
	}

	payment, _ := repo.Payment.FindByGatewayOrderID(context.Background(), order.OrderID)
	if payment.RefundAmount != 150 {
		t.Errorf("refund amount after late replay = %v, want 150", payment.RefundAmount)
	}
	if payment.Status != entity.PaymentStatusSuccess {
		t.Errorf("payment status = %s, want success", payment.Status)
	}
}
