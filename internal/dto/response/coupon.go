package response

import (
	"time"

	"dustclean/internal/data/entity"
)

type CouponResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Description   *string   `json:"description,omitempty"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue float64   `json:"discount_value"`
	MaxDiscount   *float64  `json:"max_discount,omitempty"`
	MinOrderValue float64   `json:"min_order_value"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidUntil    time.Time `json:"valid_until"`
	UsageLimit    int       `json:"usage_limit"`
	UsedCount     int       `json:"used_count"`
	IsActive      bool      `json:"is_active"`
}

// ApplyCouponResponse is the preview result: whether the coupon applies to
// the given total and what the discount would be. Nothing is consumed.
type ApplyCouponResponse struct {
	Valid    bool    `json:"valid"`
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

func CouponToResponse(coupon *entity.Coupon) CouponResponse {
	return CouponResponse{
		ID:            coupon.ID.String(),
		Code:          coupon.Code,
		Description:   coupon.Description,
		DiscountType:  string(coupon.DiscountType),
		DiscountValue: coupon.DiscountValue,
		MaxDiscount:   coupon.MaxDiscount,
		MinOrderValue: coupon.MinOrderValue,
		ValidFrom:     coupon.ValidFrom,
		ValidUntil:    coupon.ValidUntil,
		UsageLimit:    coupon.UsageLimit,
		UsedCount:     coupon.UsedCount,
		IsActive:      coupon.IsActive,
	}
}
