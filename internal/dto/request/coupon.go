package request

type ApplyCouponRequest struct {
	Code  string  `json:"code" validate:"required,min=3,max=30"`
	Total float64 `json:"total" validate:"required,gt=0"`
}

type CouponRequest struct {
	Code          string   `json:"code" validate:"required,min=3,max=30,uppercase"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	DiscountType  string   `json:"discount_type" validate:"required,oneof=percent fixed"`
	DiscountValue float64  `json:"discount_value" validate:"required,gt=0"`
	MaxDiscount   *float64 `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	MinOrderValue float64  `json:"min_order_value" validate:"gte=0"`
	ValidFrom     string   `json:"valid_from" validate:"required"` // RFC3339
	ValidUntil    string   `json:"valid_until" validate:"required"`
	UsageLimit    int      `json:"usage_limit" validate:"gte=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}
