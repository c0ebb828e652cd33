package wire

import (
	"dustclean/internal/adaptor"
	"dustclean/internal/data/repository"
	"dustclean/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCatalog(
	r chi.Router,
	catalogHandler *adaptor.CatalogHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Public browsing
	r.Get("/api/services", catalogHandler.GetServices)
	r.Get("/api/services/{id}", catalogHandler.GetServiceByID)

	// Admin catalog management
	r.Route("/api/admin/services", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Get("/", catalogHandler.GetAllServices)
		r.Post("/", catalogHandler.CreateService)
		r.Put("/{id}", catalogHandler.UpdateService)
		r.Delete("/{id}", catalogHandler.DeleteService)
	})
}
