// Package coupon decides whether a coupon can be redeemed against a cart.
package coupon

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/pricing"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

type Validator struct{}

func NewValidator() Validator {
	return Validator{}
}

// Evaluate runs the eligibility checks in order and returns the discount the
// coupon grants on cart. The first failing check is returned as a
// *errors.CouponRejectedError. A nil coupon means the code was not found.
func (Validator) Evaluate(
	coupon *model.Coupon,
	cart model.Cart,
	now time.Time,
) (decimal.Decimal, error) {
	if coupon == nil {
		return decimal.Zero, inErrors.NewCouponRejected("", inErrors.ReasonCouponNotFound)
	}
	reject := func(reason inErrors.RejectReason) (decimal.Decimal, error) {
		return decimal.Zero, inErrors.NewCouponRejected(coupon.Code, reason)
	}

	if !coupon.IsActive {
		return reject(inErrors.ReasonCouponInactive)
	}
	if now.Before(coupon.StartDate) || !now.Before(coupon.EndDate) {
		return reject(inErrors.ReasonCouponOutOfRange)
	}

	subtotal := pricing.Subtotal(cart.Items)
	if subtotal.LessThan(coupon.MinimumPurchaseAmount) {
		return reject(inErrors.ReasonMinimumPurchaseNotMet)
	}

	if len(coupon.AppliedProducts) > 0 || len(coupon.AppliedCategories) > 0 {
		if !anyItemListed(cart.Items, coupon.AppliedProducts, coupon.AppliedCategories) {
			return reject(inErrors.ReasonNotApplicable)
		}
	}
	if anyItemListed(cart.Items, coupon.ExcludedProducts, coupon.ExcludedCategories) {
		return reject(inErrors.ReasonExcluded)
	}

	if coupon.TimesUsed >= coupon.UsageLimit.Total {
		return reject(inErrors.ReasonUsageLimitReached)
	}
	if coupon.UserRedemptions >= coupon.UsageLimit.PerUser {
		return reject(inErrors.ReasonUserLimitReached)
	}

	return pricing.Discount(coupon.DiscountType, coupon.DiscountValue, subtotal), nil
}

func anyItemListed(items []model.CartItem, products []string, categories []string) bool {
	for _, item := range items {
		if slices.Contains(products, item.ProductID.String()) {
			return true
		}
		if item.Category != "" && slices.Contains(categories, item.Category) {
			return true
		}
	}
	return false
}
