package wire

import (
	"net/http"

	"dustclean/internal/adaptor"
	"dustclean/internal/data/repository"
	"dustclean/internal/usecase"
	"dustclean/pkg/gateway"
	"dustclean/pkg/middleware"
	"dustclean/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// Wiring builds the dependency graph: repositories and the gateway client
// feed the services, services feed the handlers, handlers hang off the
// router.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	gatewayClient := gateway.NewClient(config.Gateway, logger)
	service := usecase.NewService(repo, gatewayClient, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireAuth(r, handler.Auth, handler.User, repo, logger)
	wireCatalog(r, handler.Catalog, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wirePayment(r, handler.Payment, repo, logger)
	wireCoupon(r, handler.Coupon, repo, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
