package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddItem struct {
	ProductID uuid.UUID `validate:"required"        json:"productId"`
	Quantity  int32     `validate:"required,gte=1"  json:"quantity"`
	Size      string    `validate:"omitempty,max=32" json:"selectedSize"`
	Color     string    `validate:"omitempty,max=32" json:"selectedColor"`
}

// UpdateQuantity sets an item's quantity. Zero or less removes the item.
type UpdateQuantity struct {
	Quantity int32 `json:"quantity"`
}

type ApplyCoupon struct {
	Code string `validate:"required,min=3,max=32" json:"code"`
}

type SetShipping struct {
	ShippingAddressID uuid.UUID       `validate:"required" json:"shippingAddressId"`
	ShippingCost      decimal.Decimal `validate:"gte=0"    json:"shippingCost"`
}

type SetPayment struct {
	PaymentMethodID uuid.UUID `validate:"required" json:"paymentMethodId"`
}

type SaveForLater struct {
	SavedForLater *bool `validate:"required" json:"savedForLater"`
}
