package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/pricing"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

var (
	now       = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	shirtID   = uuid.MustParse("8f1c7a52-4a3e-4d7e-9a5c-0b7f3c2d1e11")
	mugID     = uuid.MustParse("2b6e9d14-7c1f-4f0a-8e3d-5a9b1c4d7e22")
	shopperID = uuid.MustParse("c3d4e5f6-1a2b-4c3d-8e9f-0a1b2c3d4e33")
)

func cartWith(items ...model.CartItem) model.Cart {
	cart := model.NewCart(model.UserOwner(shopperID), "USD", decimal.NewFromInt(5))
	cart.Items = items
	return cart
}

func shirts(quantity int32) model.CartItem {
	return model.CartItem{
		ID:        uuid.New(),
		ProductID: shirtID,
		Quantity:  quantity,
		UnitPrice: decimal.NewFromInt(20),
		Category:  "apparel",
	}
}

func mugs(quantity int32) model.CartItem {
	return model.CartItem{
		ID:        uuid.New(),
		ProductID: mugID,
		Quantity:  quantity,
		UnitPrice: decimal.NewFromInt(8),
		Category:  "kitchen",
	}
}

func validCoupon() model.Coupon {
	return model.Coupon{
		ID:                    uuid.New(),
		Code:                  "SPRING10",
		DiscountType:          model.DiscountTypePercentage,
		DiscountValue:         decimal.NewFromInt(10),
		MinimumPurchaseAmount: decimal.Zero,
		StartDate:             now.Add(-24 * time.Hour),
		EndDate:               now.Add(24 * time.Hour),
		IsActive:              true,
		UsageLimit:            model.UsageLimit{Total: 100, PerUser: 1},
		AppliedProducts:       []string{},
		AppliedCategories:     []string{},
		ExcludedProducts:      []string{},
		ExcludedCategories:    []string{},
	}
}

func TestEvaluateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *model.Coupon)
		cart   model.Cart
		nilCpn bool
		reason inErrors.RejectReason
	}{
		{
			name:   "missing coupon",
			nilCpn: true,
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonCouponNotFound,
		},
		{
			name:   "inactive",
			mutate: func(c *model.Coupon) { c.IsActive = false },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonCouponInactive,
		},
		{
			name:   "not started",
			mutate: func(c *model.Coupon) { c.StartDate = now.Add(time.Minute) },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonCouponOutOfRange,
		},
		{
			name:   "end date is exclusive",
			mutate: func(c *model.Coupon) { c.EndDate = now },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonCouponOutOfRange,
		},
		{
			name:   "minimum purchase not met",
			mutate: func(c *model.Coupon) { c.MinimumPurchaseAmount = decimal.NewFromInt(50) },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonMinimumPurchaseNotMet,
		},
		{
			name:   "allow list without match",
			mutate: func(c *model.Coupon) { c.AppliedCategories = []string{"electronics"} },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonNotApplicable,
		},
		{
			name: "deny list beats allow list",
			mutate: func(c *model.Coupon) {
				c.AppliedProducts = []string{shirtID.String()}
				c.ExcludedCategories = []string{"kitchen"}
			},
			cart:   cartWith(shirts(2), mugs(1)),
			reason: inErrors.ReasonExcluded,
		},
		{
			name:   "excluded product",
			mutate: func(c *model.Coupon) { c.ExcludedProducts = []string{mugID.String()} },
			cart:   cartWith(mugs(1)),
			reason: inErrors.ReasonExcluded,
		},
		{
			name:   "global cap reached",
			mutate: func(c *model.Coupon) { c.TimesUsed = 100 },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonUsageLimitReached,
		},
		{
			name:   "user cap reached",
			mutate: func(c *model.Coupon) { c.UserRedemptions = 1 },
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonUserLimitReached,
		},
		{
			name: "first failing check wins",
			mutate: func(c *model.Coupon) {
				c.MinimumPurchaseAmount = decimal.NewFromInt(500)
				c.TimesUsed = 100
				c.UserRedemptions = 5
			},
			cart:   cartWith(shirts(2)),
			reason: inErrors.ReasonMinimumPurchaseNotMet,
		},
	}

	validator := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var coupon *model.Coupon
			if !tt.nilCpn {
				c := validCoupon()
				if tt.mutate != nil {
					tt.mutate(&c)
				}
				coupon = &c
			}

			discount, err := validator.Evaluate(coupon, tt.cart, now)
			require.ErrorIs(t, err, inErrors.ErrCouponRejected)
			assert.True(t, discount.IsZero())

			var rejected *inErrors.CouponRejectedError
			require.True(t, errors.As(err, &rejected))
			assert.Equal(t, tt.reason, rejected.Reason)
		})
	}
}

func TestEvaluateMinimumPurchaseMessage(t *testing.T) {
	c := validCoupon()
	c.MinimumPurchaseAmount = decimal.NewFromInt(50)

	_, err := NewValidator().Evaluate(&c, cartWith(shirts(2)), now)

	var rejected *inErrors.CouponRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "minimum purchase not met", rejected.Reason.Message())
}

func TestEvaluateAccepted(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *model.Coupon)
		cart     model.Cart
		expected decimal.Decimal
	}{
		{
			name:     "percentage",
			cart:     cartWith(shirts(2)),
			expected: decimal.NewFromInt(4),
		},
		{
			name: "fixed",
			mutate: func(c *model.Coupon) {
				c.DiscountType = model.DiscountTypeFixed
				c.DiscountValue = decimal.NewFromInt(15)
			},
			cart:     cartWith(shirts(2)),
			expected: decimal.NewFromInt(15),
		},
		{
			name: "fixed clamped to subtotal",
			mutate: func(c *model.Coupon) {
				c.DiscountType = model.DiscountTypeFixed
				c.DiscountValue = decimal.NewFromInt(100)
			},
			cart:     cartWith(mugs(1)),
			expected: decimal.NewFromInt(8),
		},
		{
			name:     "allow list matched by category",
			mutate:   func(c *model.Coupon) { c.AppliedCategories = []string{"kitchen"} },
			cart:     cartWith(shirts(1), mugs(1)),
			expected: decimal.RequireFromString("2.8"),
		},
		{
			name:     "minimum purchase met exactly",
			mutate:   func(c *model.Coupon) { c.MinimumPurchaseAmount = decimal.NewFromInt(40) },
			cart:     cartWith(shirts(2)),
			expected: decimal.NewFromInt(4),
		},
		{
			name:     "start date is inclusive",
			mutate:   func(c *model.Coupon) { c.StartDate = now },
			cart:     cartWith(shirts(2)),
			expected: decimal.NewFromInt(4),
		},
	}

	validator := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCoupon()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			discount, err := validator.Evaluate(&c, tt.cart, now)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(discount), "expected %s got %s", tt.expected, discount)
			assert.True(t, discount.LessThanOrEqual(pricing.Subtotal(tt.cart.Items)))
		})
	}
}
