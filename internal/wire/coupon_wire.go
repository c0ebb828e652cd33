package wire

import (
	"dustclean/internal/adaptor"
	"dustclean/internal/data/repository"
	"dustclean/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCoupon(
	r chi.Router,
	couponHandler *adaptor.CouponHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Preview for logged-in customers
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Post("/api/coupons/apply", couponHandler.ApplyCoupon)
	})

	// Admin coupon management
	r.Route("/api/admin/coupons", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Get("/", couponHandler.GetCoupons)
		r.Post("/", couponHandler.CreateCoupon)
		r.Put("/{code}", couponHandler.UpdateCoupon)
	})
}
