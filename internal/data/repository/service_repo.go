package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"dustclean/internal/data/entity"
	"dustclean/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Service, error)
	FindAll(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Service, error)
	CountAll(ctx context.Context, activeOnly bool) (int64, error)
	Update(ctx context.Context, service *entity.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type serviceRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewServiceRepository(db database.PgxIface, log *zap.Logger) ServiceRepository {
	return &serviceRepository{
		db:  db,
		log: log.With(zap.String("repository", "service")),
	}
}

const serviceColumns = `id, name, slug, description, category, base_price, duration_minutes, add_ons, is_active, created_at, updated_at`

func (r *serviceRepository) scanService(row pgx.Row) (*entity.Service, error) {
	var service entity.Service
	var addOns []byte

	err := row.Scan(
		&service.ID,
		&service.Name,
		&service.Slug,
		&service.Description,
		&service.Category,
		&service.BasePrice,
		&service.DurationMin,
		&addOns,
		&service.IsActive,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(addOns) > 0 {
		if err := json.Unmarshal(addOns, &service.AddOns); err != nil {
			return nil, fmt.Errorf("decode service add-ons: %w", err)
		}
	}

	return &service, nil
}

func (r *serviceRepository) Create(ctx context.Context, service *entity.Service) error {
	addOns, err := json.Marshal(service.AddOns)
	if err != nil {
		return fmt.Errorf("encode service add-ons: %w", err)
	}

	query := `
		INSERT INTO services (id, name, slug, description, category, base_price, duration_minutes, add_ons, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Exec(ctx, query,
		service.ID,
		service.Name,
		service.Slug,
		service.Description,
		service.Category,
		service.BasePrice,
		service.DurationMin,
		addOns,
		service.IsActive,
		service.CreatedAt,
		service.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create service",
			zap.Error(err),
			zap.String("name", service.Name),
		)
		return fmt.Errorf("create service %s: %w", service.Name, err)
	}

	return nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	service, err := r.scanService(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service by ID",
			zap.Error(err),
			zap.String("service_id", id.String()),
		)
		return nil, fmt.Errorf("find service by ID %s: %w", id.String(), err)
	}

	return service, nil
}

func (r *serviceRepository) FindBySlug(ctx context.Context, slug string) (*entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE slug = $1`

	service, err := r.scanService(r.db.QueryRow(ctx, query, slug))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service by slug",
			zap.Error(err),
			zap.String("slug", slug),
		)
		return nil, fmt.Errorf("find service by slug %s: %w", slug, err)
	}

	return service, nil
}

func (r *serviceRepository) FindAll(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY category, name LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find services",
			zap.Error(err),
			zap.Bool("active_only", activeOnly),
		)
		return nil, fmt.Errorf("find services: %w", err)
	}
	defer rows.Close()

	var services []*entity.Service
	for rows.Next() {
		service, err := r.scanService(rows)
		if err != nil {
			r.log.Error("Failed to scan service row", zap.Error(err))
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, service)
	}

	return services, nil
}

func (r *serviceRepository) CountAll(ctx context.Context, activeOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM services`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		r.log.Error("Failed to count services", zap.Error(err))
		return 0, fmt.Errorf("count services: %w", err)
	}

	return count, nil
}

func (r *serviceRepository) Update(ctx context.Context, service *entity.Service) error {
	addOns, err := json.Marshal(service.AddOns)
	if err != nil {
		return fmt.Errorf("encode service add-ons: %w", err)
	}

	query := `
		UPDATE services
		SET name = $2, slug = $3, description = $4, category = $5, base_price = $6,
		    duration_minutes = $7, add_ons = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		service.ID,
		service.Name,
		service.Slug,
		service.Description,
		service.Category,
		service.BasePrice,
		service.DurationMin,
		addOns,
		service.IsActive,
		service.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update service",
			zap.Error(err),
			zap.String("service_id", service.ID.String()),
		)
		return fmt.Errorf("update service %s: %w", service.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s not found", service.ID.String())
	}

	return nil
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM services WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete service",
			zap.Error(err),
			zap.String("service_id", id.String()),
		)
		return fmt.Errorf("delete service %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s not found", id.String())
	}

	r.log.Info("Service deleted", zap.String("service_id", id.String()))
	return nil
}
