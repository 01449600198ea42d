package errors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyAuth        = errors.New("missing authorization")
	ErrEmptySubject     = errors.New("missing subject")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrForbidden        = errors.New("forbidden")
	ErrMissingOwner     = errors.New("missing cart owner, provide a bearer token or session id")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrOutOfStock       = errors.New("product is out of stock")
	ErrInvalidAttribute = errors.New("invalid product attribute")
	ErrCouponRejected   = errors.New("coupon rejected")
	ErrConcurrency      = errors.New("concurrency conflict")
	ErrLimitExceeded    = errors.New("coupon usage limit exceeded")
	ErrDelivery         = errors.New("failed delivering notification")
	ErrTimeout          = errors.New("operation timed out")
)

var (
	ErrTotalLimitExceeded = fmt.Errorf("total %w", ErrLimitExceeded)
	ErrUserLimitExceeded  = fmt.Errorf("per user %w", ErrLimitExceeded)
)

type RejectReason string

const (
	ReasonCouponNotFound        RejectReason = "coupon_not_found"
	ReasonCouponInactive        RejectReason = "coupon_inactive"
	ReasonCouponOutOfRange      RejectReason = "coupon_out_of_range"
	ReasonMinimumPurchaseNotMet RejectReason = "minimum_purchase_not_met"
	ReasonNotApplicable         RejectReason = "coupon_not_applicable"
	ReasonExcluded              RejectReason = "coupon_excluded"
	ReasonUsageLimitReached     RejectReason = "usage_limit_reached"
	ReasonUserLimitReached      RejectReason = "user_limit_reached"
	ReasonAlreadyApplied        RejectReason = "coupon_already_applied"
)

var reasonMessages = map[RejectReason]string{
	ReasonCouponNotFound:        "invalid promo code",
	ReasonCouponInactive:        "promo code is not active",
	ReasonCouponOutOfRange:      "promo code is out of its validity window",
	ReasonMinimumPurchaseNotMet: "minimum purchase not met",
	ReasonNotApplicable:         "coupon is not applicable to the products in your cart",
	ReasonExcluded:              "coupon cannot be applied to some products in your cart",
	ReasonUsageLimitReached:     "coupon usage limit reached",
	ReasonUserLimitReached:      "you have reached the usage limit for this promo code",
	ReasonAlreadyApplied:        "a coupon is already applied to this cart",
}

func (r RejectReason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

type CouponRejectedError struct {
	Code   string
	Reason RejectReason
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon code=%s rejected: %s", e.Code, e.Reason.Message())
}

func (e *CouponRejectedError) Unwrap() error {
	return ErrCouponRejected
}

func NewCouponRejected(code string, reason RejectReason) error {
	return &CouponRejectedError{Code: code, Reason: reason}
}
