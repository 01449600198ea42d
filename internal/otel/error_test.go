package otel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, failed := tracer.Start(context.Background(), "failed")
	RecordError(fmt.Errorf("failed saving cart with error=%w", errors.New("connection reset")), failed)
	failed.End()

	_, rejected := tracer.Start(context.Background(), "rejected")
	RecordError(fmt.Errorf("failed ApplyCoupon with error=%w", inErrors.NewCouponRejected("SPRING10", inErrors.ReasonExcluded)), rejected)
	rejected.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String(AttrRejectReason, string(inErrors.ReasonExcluded)))
	assert.Contains(t, spans[1].Attributes(), attribute.String(AttrCouponCode, "SPRING10"))
}
