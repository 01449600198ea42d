package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCouponRejectedError(t *testing.T) {
	err := fmt.Errorf("failed applying coupon with error=%w", NewCouponRejected("SAVE10", ReasonMinimumPurchaseNotMet))

	assert.ErrorIs(t, err, ErrCouponRejected)

	var rejected *CouponRejectedError
	assert.True(t, errors.As(err, &rejected))
	assert.Equal(t, ReasonMinimumPurchaseNotMet, rejected.Reason)
	assert.Contains(t, err.Error(), "minimum purchase not met")
}

func TestRejectReasonMessageFallsBackToCode(t *testing.T) {
	assert.Equal(t, "something_else", RejectReason("something_else").Message())
}
