package otel

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

const (
	AttrCouponCode   = "coupon.code"
	AttrRejectReason = "coupon.reject_reason"
)

// RecordError marks span as failed. Coupon rejections are business outcomes,
// so they are tagged with the reason and leave the span status unset.
func RecordError(err error, span trace.Span) {
	if err == nil {
		return
	}
	var rejected *inErrors.CouponRejectedError
	if errors.As(err, &rejected) {
		span.SetAttributes(
			attribute.String(AttrCouponCode, rejected.Code),
			attribute.String(AttrRejectReason, string(rejected.Reason)),
		)
		span.AddEvent(err.Error())
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
