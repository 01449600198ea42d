package response

import (
	"github.com/google/uuid"

	"github.com/Alturino/storefront/cart/internal/model"
)

func FromCart(cart model.Cart) Cart {
	items := make([]CartItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItem{
			ID:            item.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			LineTotal:     item.LineTotal(),
			Category:      item.Category,
			SelectedSize:  item.Size,
			SelectedColor: item.Color,
		}
	}
	coupons := make([]AppliedCoupon, len(cart.Coupons))
	for i, applied := range cart.Coupons {
		coupons[i] = AppliedCoupon{
			CouponID:    applied.CouponID,
			Code:        applied.Code,
			Description: applied.Description,
			Amount:      applied.Amount,
		}
	}
	return Cart{
		ID:        cart.ID,
		UserID:    optional(cart.Owner.UserID),
		SessionID: cart.Owner.SessionID,
		Currency:  cart.Currency,
		Items:     items,
		Subtotal:  cart.Totals.Subtotal,
		Tax: Tax{
			TaxPercentage: cart.Totals.TaxPercentage,
			TaxAmount:     cart.Totals.TaxAmount,
		},
		DiscountAmount:    cart.Totals.DiscountAmount,
		DiscountsApplied:  coupons,
		ShippingCost:      cart.Totals.ShippingCost,
		Total:             cart.Totals.Total,
		ShippingAddressID: optional(cart.ShippingAddressID),
		PaymentMethodID:   optional(cart.PaymentMethodID),
		SavedForLater:     cart.SavedForLater,
		Status:            string(cart.Status),
		Version:           cart.Version,
		CreatedAt:         cart.CreatedAt,
		UpdatedAt:         cart.UpdatedAt,
	}
}

func optional(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
