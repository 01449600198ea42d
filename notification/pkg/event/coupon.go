package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const ChannelCouponRedeemed = "coupon.redeemed"

type CouponRedeemed struct {
	CartID     uuid.UUID       `json:"cartId"`
	CouponID   uuid.UUID       `json:"couponId"`
	UserID     uuid.UUID       `json:"userId"`
	Email      string          `json:"email"`
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	RedeemedAt time.Time       `json:"redeemedAt"`
}
