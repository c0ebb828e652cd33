package adaptor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dustclean/internal/data/entity"
	"dustclean/internal/dto/request"
	"dustclean/internal/dto/response"
	"dustclean/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubPaymentService struct {
	webhookErr error
}

func (s *stubPaymentService) CreateOrder(context.Context, uuid.UUID, *request.CreateOrderRequest) (*response.CheckoutOrderResponse, error) {
	return nil, nil
}

func (s *stubPaymentService) VerifyPayment(context.Context, uuid.UUID, *request.VerifyPaymentRequest) (*response.PaymentResponse, error) {
	return nil, nil
}

func (s *stubPaymentService) HandleWebhook(context.Context, []byte, string) error {
	return s.webhookErr
}

func (s *stubPaymentService) GetPayment(context.Context, string, uuid.UUID, entity.UserRole) (*response.PaymentResponse, error) {
	return nil, nil
}

func (s *stubPaymentService) ListPaymentsForBooking(context.Context, string, uuid.UUID, entity.UserRole) ([]response.PaymentResponse, error) {
	return nil, nil
}

func (s *stubPaymentService) ProcessRefund(context.Context, string, uuid.UUID, *request.RefundRequest) (*response.PaymentResponse, error) {
	return nil, nil
}

// A 400 tells the gateway the delivery is permanently bad; only signature
// and payload problems deserve that. Anything transient must come back as
// a 500 so the gateway keeps redelivering.
func TestWebhookStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"accepted", nil, http.StatusOK},
		{"bad signature", fmt.Errorf("webhook: %w", usecase.ErrSignatureVerification), http.StatusBadRequest},
		{"malformed event", fmt.Errorf("%w: unexpected payload", usecase.ErrValidation), http.StatusBadRequest},
		{"unknown order", fmt.Errorf("payment for order order_404: %w", usecase.ErrNotFound), http.StatusBadRequest},
		{"storage failure", fmt.Errorf("apply webhook refund: connection reset by peer"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewPaymentHandler(&stubPaymentService{webhookErr: tc.err}, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook",
				strings.NewReader(`{"event":"payment.captured","payload":{}}`))
			req.Header.Set("X-Webhook-Signature", "aabbcc")
			rec := httptest.NewRecorder()

			handler.Webhook(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
