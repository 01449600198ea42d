// Package pricing computes cart totals. It performs no I/O.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/internal/model"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

var hundred = decimal.NewFromInt(100)

type Engine struct{}

func NewEngine() Engine {
	return Engine{}
}

// Compute derives totals from items. The discount is clamped into [0, subtotal];
// a negative tax percentage, shipping cost or resulting total is rejected.
func (Engine) Compute(
	items []model.CartItem,
	taxPercentage decimal.Decimal,
	shippingCost decimal.Decimal,
	discount decimal.Decimal,
) (model.Totals, error) {
	if taxPercentage.IsNegative() {
		return model.Totals{}, fmt.Errorf("failed computing totals taxPercentage=%s with error=%w", taxPercentage, inErrors.ErrValidation)
	}
	if shippingCost.IsNegative() {
		return model.Totals{}, fmt.Errorf("failed computing totals shippingCost=%s with error=%w", shippingCost, inErrors.ErrValidation)
	}

	subtotal := Subtotal(items)
	tax := subtotal.Mul(taxPercentage).Div(hundred).Round(2)
	discount = Clamp(discount, subtotal)

	total := subtotal.Sub(discount).Add(tax).Add(shippingCost)
	if total.IsNegative() {
		return model.Totals{}, fmt.Errorf("failed computing totals total=%s with error=%w", total, inErrors.ErrValidation)
	}

	return model.Totals{
		Subtotal:       subtotal,
		TaxPercentage:  taxPercentage,
		TaxAmount:      tax,
		DiscountAmount: discount,
		ShippingCost:   shippingCost,
		Total:          total,
	}, nil
}

func Subtotal(items []model.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Clamp bounds amount into [0, ceiling].
func Clamp(amount decimal.Decimal, ceiling decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(ceiling) {
		return ceiling
	}
	return amount
}

// Discount returns what a coupon of the given type and value takes off subtotal.
func Discount(discountType model.DiscountType, value decimal.Decimal, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch discountType {
	case model.DiscountTypePercentage:
		amount = subtotal.Mul(value).Div(hundred).Round(2)
	case model.DiscountTypeFixed:
		amount = value
	default:
		amount = decimal.Zero
	}
	return Clamp(amount, subtotal)
}
