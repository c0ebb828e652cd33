package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dustclean/internal/dto/request"
	"dustclean/internal/usecase"
	"dustclean/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreateOrder handles POST /api/payments/create-order (protected)
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req request.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment order")
		return
	}

	utils.ResponseCreated(w, "Payment order created", order)
}

// VerifyPayment handles POST /api/payments/verify (protected)
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.VerifyPayment(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify payment")
		return
	}

	utils.ResponseSuccess(w, "Payment verified", payment)
}

// Webhook handles POST /api/payments/webhook (public, gateway-signed).
// The signature covers the exact raw body, so the body is read before any
// decoding. Responds with a bare body the gateway expects, not the JSON
// envelope.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.log.Error("Failed to read webhook body", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if err := h.service.HandleWebhook(r.Context(), body, signature); err != nil {
		// 400 marks the delivery itself as bad and stops redelivery; any
		// other failure gets a 500 so the gateway retries later.
		if errors.Is(err, usecase.ErrSignatureVerification) ||
			errors.Is(err, usecase.ErrValidation) ||
			errors.Is(err, usecase.ErrNotFound) {
			h.log.Warn("Webhook rejected", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.log.Error("Webhook processing failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GetPayment handles GET /api/payments/{id} (protected)
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "id"), userID, role)
	if err != nil {
		handleServiceError(w, h.log, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// ListPaymentsForBooking handles GET /api/bookings/{id}/payments (protected)
func (h *PaymentHandler) ListPaymentsForBooking(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPaymentsForBooking(r.Context(), chi.URLParam(r, "id"), userID, role)
	if err != nil {
		handleServiceError(w, h.log, err, "list booking payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// Refund handles POST /api/admin/payments/{id}/refund (admin)
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req request.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.ProcessRefund(r.Context(), chi.URLParam(r, "id"), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "process refund")
		return
	}

	utils.ResponseSuccess(w, "Refund processed", payment)
}
