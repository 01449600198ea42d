package controller

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	commonOtel "github.com/Alturino/storefront/internal/otel"
)

func (t CartController) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController CreateCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController CreateCoupon").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Info().Msg("decoding request body")
	reqBody := request.CreateCoupon{}
	if err := decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyCouponCode, reqBody.Code).Logger()
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "creating coupon").Logger()
	logger.Info().Msg("creating coupon")
	c = logger.WithContext(c)
	coupon, err := t.service.CreateCoupon(c, reqBody)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("created coupon")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "successfully created coupon",
		"data": map[string]interface{}{
			"coupon": response.FromCoupon(coupon),
		},
	})
}
