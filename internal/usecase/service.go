package usecase

import (
	"dustclean/internal/data/repository"
	"dustclean/pkg/gateway"
	"dustclean/pkg/utils"

	"go.uber.org/zap"
)

// Service bundles all application services for injection into handlers.
type Service struct {
	Auth    AuthService
	User    UserService
	Catalog CatalogService
	Booking BookingService
	Payment PaymentService
	Coupon  CouponService
}

func NewService(repo *repository.Repository, gw gateway.API, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Auth:    NewAuthService(repo, config, log),
		User:    NewUserService(repo.User, log),
		Catalog: NewCatalogService(repo, log),
		Booking: NewBookingService(repo, config, log),
		Payment: NewPaymentService(repo, gw, config, log),
		Coupon:  NewCouponService(repo.Coupon, log),
	}
}
