package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

type UsageLimit struct {
	Total   int32 `json:"total"`
	PerUser int32 `json:"perUser"`
}

type Coupon struct {
	ID                    uuid.UUID       `json:"id"`
	Code                  string          `json:"code"`
	Description           string          `json:"description"`
	DiscountType          DiscountType    `json:"discountType"`
	DiscountValue         decimal.Decimal `json:"discountValue"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimumPurchaseAmount"`
	StartDate             time.Time       `json:"startDate"`
	EndDate               time.Time       `json:"endDate"`
	IsActive              bool            `json:"isActive"`
	UsageLimit            UsageLimit      `json:"usageLimit"`
	TimesUsed             int32           `json:"timesUsed"`
	// UserRedemptions holds the redemption count of the user the coupon was loaded for.
	UserRedemptions    int32     `json:"userRedemptions"`
	AppliedProducts    []string  `json:"appliedProducts"`
	AppliedCategories  []string  `json:"appliedCategories"`
	ExcludedProducts   []string  `json:"excludedProducts"`
	ExcludedCategories []string  `json:"excludedCategories"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
