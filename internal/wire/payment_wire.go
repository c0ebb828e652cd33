package wire

import (
	"dustclean/internal/adaptor"
	"dustclean/internal/data/repository"
	"dustclean/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Gateway-originated, authenticated by its own signature
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	// Customer payment routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Post("/api/payments/create-order", paymentHandler.CreateOrder)
		r.Post("/api/payments/verify", paymentHandler.VerifyPayment)
		r.Get("/api/payments/{id}", paymentHandler.GetPayment)
		r.Get("/api/bookings/{id}/payments", paymentHandler.ListPaymentsForBooking)
	})

	// Admin refunds
	r.Route("/api/admin/payments", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/{id}/refund", paymentHandler.Refund)
	})
}
