package entity

import (
	"time"
)

type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

type Coupon struct {
	Base
	Code          string       `db:"code"`
	Description   *string      `db:"description"`
	DiscountType  DiscountType `db:"discount_type"`
	DiscountValue float64      `db:"discount_value"`
	MaxDiscount   *float64     `db:"max_discount"`
	MinOrderValue float64      `db:"min_order_value"`
	ValidFrom     time.Time    `db:"valid_from"`
	ValidUntil    time.Time    `db:"valid_until"`
	UsageLimit    int          `db:"usage_limit"`
	UsedCount     int          `db:"used_count"`
	IsActive      bool         `db:"is_active"`
}

// IsValid reports whether the coupon is redeemable at the given moment.
// It does not look at any particular order; use Discount for that.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// Discount computes the discount this coupon grants on the given order
// total. Pure: usage count is only consumed by the atomic redeem in the
// repository. Returns 0 when the order is below the minimum.
func (c *Coupon) Discount(total float64) float64 {
	if total < c.MinOrderValue {
		return 0
	}

	var discount float64
	switch c.DiscountType {
	case DiscountTypePercent:
		discount = total * c.DiscountValue / 100
	case DiscountTypeFixed:
		discount = c.DiscountValue
	}

	if c.MaxDiscount != nil && discount > *c.MaxDiscount {
		discount = *c.MaxDiscount
	}
	if discount > total {
		discount = total
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
