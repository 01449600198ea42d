package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID                uuid.UUID       `json:"id"`
	UserID            *uuid.UUID      `json:"userId,omitempty"`
	SessionID         string          `json:"sessionId,omitempty"`
	Currency          string          `json:"currency"`
	Items             []CartItem      `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               Tax             `json:"tax"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	DiscountsApplied  []AppliedCoupon `json:"discountsApplied"`
	ShippingCost      decimal.Decimal `json:"shippingCost"`
	Total             decimal.Decimal `json:"total"`
	ShippingAddressID *uuid.UUID      `json:"shippingAddressId,omitempty"`
	PaymentMethodID   *uuid.UUID      `json:"paymentMethodId,omitempty"`
	SavedForLater     bool            `json:"savedForLater"`
	Status            string          `json:"status"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type Tax struct {
	TaxPercentage decimal.Decimal `json:"taxPercentage"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
}

type CartItem struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"productId"`
	Quantity      int32           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
	Category      string          `json:"category"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	SelectedColor string          `json:"selectedColor,omitempty"`
}

type AppliedCoupon struct {
	CouponID    uuid.UUID       `json:"couponId"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}
