package response

import (
	"time"

	"dustclean/internal/data/entity"
)

type AddOnResponse struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type ServiceResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     *string         `json:"description,omitempty"`
	Category        string          `json:"category"`
	BasePrice       float64         `json:"base_price"`
	DurationMinutes int             `json:"duration_minutes"`
	AddOns          []AddOnResponse `json:"add_ons,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

func ServiceToResponse(service *entity.Service) ServiceResponse {
	addOns := make([]AddOnResponse, len(service.AddOns))
	for i, a := range service.AddOns {
		addOns[i] = AddOnResponse{Name: a.Name, Price: a.Price}
	}

	return ServiceResponse{
		ID:              service.ID.String(),
		Name:            service.Name,
		Slug:            service.Slug,
		Description:     service.Description,
		Category:        service.Category,
		BasePrice:       service.BasePrice,
		DurationMinutes: service.DurationMin,
		AddOns:          addOns,
		IsActive:        service.IsActive,
		CreatedAt:       service.CreatedAt,
	}
}
