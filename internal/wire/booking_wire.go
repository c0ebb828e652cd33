package wire

import (
	"dustclean/internal/adaptor"
	"dustclean/internal/data/repository"
	"dustclean/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Customer and staff booking routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Post("/api/bookings", bookingHandler.CreateBooking)
		r.Get("/api/bookings", bookingHandler.GetUserBookings)
		r.Get("/api/bookings/{id}", bookingHandler.GetBookingByID)
		r.Put("/api/bookings/{id}", bookingHandler.UpdateBooking)
		r.Delete("/api/bookings/{id}", bookingHandler.CancelBooking)
	})

	// Admin booking management
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Get("/", bookingHandler.GetAllBookings)
		r.Put("/{id}/status", bookingHandler.UpdateStatus)
		r.Put("/{id}/staff", bookingHandler.AssignStaff)
	})
}
