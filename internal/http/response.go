package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Add(HeaderContentType, HeaderValueJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msgf("failed encode response body with error=%s", err.Error())
		return
	}
}

// WriteErrorResponse maps err onto a status code and writes the failed envelope.
func WriteErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	body := map[string]interface{}{
		"status":     StatusFailed,
		"statusCode": StatusCode(err),
		"message":    err.Error(),
	}
	var rejected *inErrors.CouponRejectedError
	if errors.As(err, &rejected) {
		body["data"] = map[string]interface{}{
			"reason":  rejected.Reason,
			"message": rejected.Reason.Message(),
		}
	}
	WriteJsonResponse(c, w, map[string]string{}, body)
}

func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, inErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrEmptySubject),
		errors.Is(err, inErrors.ErrTokenInvalid),
		errors.Is(err, inErrors.ErrMissingOwner):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, inErrors.ErrConcurrency):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, inErrors.ErrValidation),
		errors.Is(err, inErrors.ErrOutOfStock),
		errors.Is(err, inErrors.ErrInvalidAttribute),
		errors.Is(err, inErrors.ErrCouponRejected),
		errors.Is(err, inErrors.ErrLimitExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
