package request

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateCoupon struct {
	Code                  string          `validate:"required,alphanum,min=3,max=32"           json:"code"`
	Description           string          `validate:"max=255"                                  json:"description"`
	DiscountType          string          `validate:"required,oneof=percentage fixed"          json:"discountType"`
	DiscountValue         decimal.Decimal `validate:"gt=0"                                     json:"discountValue"`
	MinimumPurchaseAmount decimal.Decimal `validate:"gte=0"                                    json:"minimumPurchaseAmount"`
	StartDate             time.Time       `validate:"required"                                 json:"startDate"`
	EndDate               time.Time       `validate:"required,gtfield=StartDate"               json:"endDate"`
	IsActive              *bool           `validate:"omitempty"                                json:"isActive"`
	UsageLimit            UsageLimit      `validate:"required"                                 json:"usageLimit"`
	AppliedProducts       []string        `validate:"omitempty,dive,uuid"                      json:"appliedProducts"`
	AppliedCategories     []string        `validate:"omitempty,dive,required"                  json:"appliedCategories"`
	ExcludedProducts      []string        `validate:"omitempty,dive,uuid"                      json:"excludedProducts"`
	ExcludedCategories    []string        `validate:"omitempty,dive,required"                  json:"excludedCategories"`
}

type UsageLimit struct {
	Total   int32 `validate:"gte=1"                json:"total"`
	PerUser int32 `validate:"gte=1,ltefield=Total" json:"perUser"`
}
