package request

type AddOnInput struct {
	Name  string  `json:"name" validate:"required,min=2,max=100"`
	Price float64 `json:"price" validate:"gte=0"`
}

type ServiceRequest struct {
	Name            string       `json:"name" validate:"required,min=3,max=150"`
	Description     *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category        string       `json:"category" validate:"required,min=2,max=100"`
	BasePrice       float64      `json:"base_price" validate:"required,gt=0"`
	DurationMinutes int          `json:"duration_minutes" validate:"required,min=15"`
	AddOns          []AddOnInput `json:"add_ons,omitempty" validate:"omitempty,dive"`
	IsActive        *bool        `json:"is_active,omitempty"`
}

type ServiceUpdateRequest struct {
	Name            *string      `json:"name,omitempty" validate:"omitempty,min=3,max=150"`
	Description     *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category        *string      `json:"category,omitempty" validate:"omitempty,min=2,max=100"`
	BasePrice       *float64     `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	DurationMinutes *int         `json:"duration_minutes,omitempty" validate:"omitempty,min=15"`
	AddOns          []AddOnInput `json:"add_ons,omitempty" validate:"omitempty,dive"`
	IsActive        *bool        `json:"is_active,omitempty"`
}
