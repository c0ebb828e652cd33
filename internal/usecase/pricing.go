package usecase

import (
	"dustclean/internal/data/entity"
	"dustclean/pkg/utils"
)

// Pricing is the money breakdown of a booking. All values are rounded to
// two decimals, half-up, and total = subtotal + tax - discount.
type Pricing struct {
	Subtotal float64
	Tax      float64
	Discount float64
	Total    float64
}

// LineItemTotal prices one line item from its snapshot values:
// (base price + add-on prices) * quantity.
func LineItemTotal(item entity.LineItem) float64 {
	unit := item.BasePrice
	for _, a := range item.AddOns {
		unit += a.Price
	}
	return utils.Round2(unit * float64(item.Quantity))
}

// ComputePricing derives subtotal, tax, and total from priced line items.
// Pure: it reads only its arguments.
func ComputePricing(items []entity.LineItem, taxRatePercent float64) Pricing {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Subtotal
	}
	subtotal = utils.Round2(subtotal)

	tax := utils.Round2(subtotal * taxRatePercent / 100)

	return Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    utils.Round2(subtotal + tax),
	}
}

// ApplyDiscount subtracts a coupon discount from the pricing using the same
// rounding rule. The discount never pushes the total below zero.
func (p Pricing) ApplyDiscount(discount float64) Pricing {
	discount = utils.Round2(discount)
	if discount < 0 {
		discount = 0
	}
	if discount > p.Total {
		discount = p.Total
	}

	p.Discount = discount
	p.Total = utils.Round2(p.Subtotal + p.Tax - discount)
	return p
}
