package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checked_out"
)

type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cartId"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Category  string          `json:"category"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

// Matches reports whether the item holds the same product variant.
func (i CartItem) Matches(productID uuid.UUID, size string, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// AppliedCoupon is the snapshot of a redeemed coupon kept on the cart so the
// discount can follow later item changes.
type AppliedCoupon struct {
	CouponID      uuid.UUID       `json:"couponId"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Amount        decimal.Decimal `json:"amount"`
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxPercentage  decimal.Decimal `json:"taxPercentage"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	Total          decimal.Decimal `json:"total"`
}

type Cart struct {
	ID                uuid.UUID       `json:"id"`
	Owner             Owner           `json:"owner"`
	Currency          string          `json:"currency"`
	Items             []CartItem      `json:"items"`
	Totals            Totals          `json:"totals"`
	Coupons           []AppliedCoupon `json:"discountsApplied"`
	ShippingAddressID uuid.UUID       `json:"shippingAddressId"`
	PaymentMethodID   uuid.UUID       `json:"paymentMethodId"`
	SavedForLater     bool            `json:"savedForLater"`
	Status            CartStatus      `json:"status"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// NewCart returns an empty active cart that has not been persisted yet.
func NewCart(owner Owner, currency string, taxPercentage decimal.Decimal) Cart {
	return Cart{
		ID:       uuid.New(),
		Owner:    owner,
		Currency: currency,
		Items:    []CartItem{},
		Totals: Totals{
			Subtotal:       decimal.Zero,
			TaxPercentage:  taxPercentage,
			TaxAmount:      decimal.Zero,
			DiscountAmount: decimal.Zero,
			ShippingCost:   decimal.Zero,
			Total:          decimal.Zero,
		},
		Coupons: []AppliedCoupon{},
		Status:  CartStatusActive,
	}
}

// IsNew reports whether the cart has never been saved.
func (c Cart) IsNew() bool {
	return c.Version == 0
}

func (c Cart) FindItem(itemID uuid.UUID) (int, bool) {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i, true
		}
	}
	return -1, false
}

func (c Cart) FindVariant(productID uuid.UUID, size string, color string) (int, bool) {
	for i, item := range c.Items {
		if item.Matches(productID, size, color) {
			return i, true
		}
	}
	return -1, false
}

func (c Cart) HasCoupon() bool {
	return len(c.Coupons) > 0
}

// Clone deep copies the cart, including items and coupons.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	out.Coupons = make([]AppliedCoupon, len(c.Coupons))
	copy(out.Coupons, c.Coupons)
	return out
}
