package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/internal/model"
)

type Coupon struct {
	ID                    uuid.UUID       `json:"id"`
	Code                  string          `json:"code"`
	Description           string          `json:"description"`
	DiscountType          string          `json:"discountType"`
	DiscountValue         decimal.Decimal `json:"discountValue"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimumPurchaseAmount"`
	StartDate             time.Time       `json:"startDate"`
	EndDate               time.Time       `json:"endDate"`
	IsActive              bool            `json:"isActive"`
	UsageLimit            UsageLimit      `json:"usageLimit"`
	TimesUsed             int32           `json:"timesUsed"`
	AppliedProducts       []string        `json:"appliedProducts"`
	AppliedCategories     []string        `json:"appliedCategories"`
	ExcludedProducts      []string        `json:"excludedProducts"`
	ExcludedCategories    []string        `json:"excludedCategories"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

type UsageLimit struct {
	Total   int32 `json:"total"`
	PerUser int32 `json:"perUser"`
}

func FromCoupon(coupon model.Coupon) Coupon {
	return Coupon{
		ID:                    coupon.ID,
		Code:                  coupon.Code,
		Description:           coupon.Description,
		DiscountType:          string(coupon.DiscountType),
		DiscountValue:         coupon.DiscountValue,
		MinimumPurchaseAmount: coupon.MinimumPurchaseAmount,
		StartDate:             coupon.StartDate,
		EndDate:               coupon.EndDate,
		IsActive:              coupon.IsActive,
		UsageLimit:            UsageLimit{Total: coupon.UsageLimit.Total, PerUser: coupon.UsageLimit.PerUser},
		TimesUsed:             coupon.TimesUsed,
		AppliedProducts:       coupon.AppliedProducts,
		AppliedCategories:     coupon.AppliedCategories,
		ExcludedProducts:      coupon.ExcludedProducts,
		ExcludedCategories:    coupon.ExcludedCategories,
		CreatedAt:             coupon.CreatedAt,
		UpdatedAt:             coupon.UpdatedAt,
	}
}
