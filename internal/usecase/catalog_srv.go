package usecase

import (
	"context"
	"fmt"
	"time"

	"dustclean/internal/data/entity"
	"dustclean/internal/data/repository"
	"dustclean/internal/dto/request"
	"dustclean/internal/dto/response"
	"dustclean/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	GetServices(ctx context.Context, req *request.PaginatedRequest, activeOnly bool) (*response.PaginatedResponse[response.ServiceResponse], error)
	GetServiceByID(ctx context.Context, serviceID string) (*response.ServiceResponse, error)
	CreateService(ctx context.Context, req *request.ServiceRequest) (*response.ServiceResponse, error)
	UpdateService(ctx context.Context, serviceID string, req *request.ServiceUpdateRequest) (*response.ServiceResponse, error)
	DeleteService(ctx context.Context, serviceID string) error
}

type catalogService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) CatalogService {
	return &catalogService{
		repo: repo,
		log:  log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) GetServices(ctx context.Context, req *request.PaginatedRequest, activeOnly bool) (*response.PaginatedResponse[response.ServiceResponse], error) {
	services, err := s.repo.Service.FindAll(ctx, activeOnly, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get services", zap.Error(err))
		return nil, fmt.Errorf("get services: %w", err)
	}

	total, err := s.repo.Service.CountAll(ctx, activeOnly)
	if err != nil {
		s.log.Error("Failed to count services", zap.Error(err))
		return nil, fmt.Errorf("count services: %w", err)
	}

	serviceResponses := make([]response.ServiceResponse, len(services))
	for i, service := range services {
		serviceResponses[i] = response.ServiceToResponse(service)
	}

	return response.NewPaginatedResponse(serviceResponses, req.Page, req.PerPage, total), nil
}

func (s *catalogService) GetServiceByID(ctx context.Context, serviceID string) (*response.ServiceResponse, error) {
	id, err := uuid.Parse(serviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service id %s", ErrValidation, serviceID)
	}

	service, err := s.repo.Service.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	if service == nil {
		return nil, fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
	}

	resp := response.ServiceToResponse(service)
	return &resp, nil
}

func (s *catalogService) CreateService(ctx context.Context, req *request.ServiceRequest) (*response.ServiceResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create service validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	addOns := make([]entity.AddOn, len(req.AddOns))
	for i, a := range req.AddOns {
		addOns[i] = entity.AddOn{Name: a.Name, Price: a.Price}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now()
	service := &entity.Service{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Slug:        entity.Slugify(req.Name),
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		DurationMin: req.DurationMinutes,
		AddOns:      addOns,
		IsActive:    isActive,
	}

	if err := s.repo.Service.Create(ctx, service); err != nil {
		s.log.Error("Failed to create service", zap.Error(err), zap.String("name", req.Name))
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.log.Info("Service created",
		zap.String("service_id", service.ID.String()),
		zap.String("slug", service.Slug),
	)

	resp := response.ServiceToResponse(service)
	return &resp, nil
}

func (s *catalogService) UpdateService(ctx context.Context, serviceID string, req *request.ServiceUpdateRequest) (*response.ServiceResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(serviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service id %s", ErrValidation, serviceID)
	}

	service, err := s.repo.Service.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find service: %w", err)
	}
	if service == nil {
		return nil, fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
	}

	if req.Name != nil {
		service.Name = *req.Name
		service.Slug = entity.Slugify(*req.Name)
	}
	if req.Description != nil {
		service.Description = req.Description
	}
	if req.Category != nil {
		service.Category = *req.Category
	}
	if req.BasePrice != nil {
		service.BasePrice = *req.BasePrice
	}
	if req.DurationMinutes != nil {
		service.DurationMin = *req.DurationMinutes
	}
	if req.AddOns != nil {
		addOns := make([]entity.AddOn, len(req.AddOns))
		for i, a := range req.AddOns {
			addOns[i] = entity.AddOn{Name: a.Name, Price: a.Price}
		}
		service.AddOns = addOns
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	service.UpdatedAt = time.Now()

	if err := s.repo.Service.Update(ctx, service); err != nil {
		s.log.Error("Failed to update service", zap.Error(err), zap.String("service_id", serviceID))
		return nil, fmt.Errorf("update service: %w", err)
	}

	s.log.Info("Service updated", zap.String("service_id", serviceID))

	resp := response.ServiceToResponse(service)
	return &resp, nil
}

func (s *catalogService) DeleteService(ctx context.Context, serviceID string) error {
	id, err := uuid.Parse(serviceID)
	if err != nil {
		return fmt.Errorf("%w: invalid service id %s", ErrValidation, serviceID)
	}

	if err := s.repo.Service.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete service", zap.Error(err), zap.String("service_id", serviceID))
		return fmt.Errorf("delete service %s: %w", serviceID, err)
	}

	return nil
}
