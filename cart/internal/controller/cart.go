package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/limiter"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	commonOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, service *service.CartService, couponLimiter limiter.Limiter) {
	controller := CartController{service: service}

	carts := router.PathPrefix("/carts").Subrouter()
	carts.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	carts.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	carts.HandleFunc("/items/{itemId}", controller.UpdateQuantity).Methods(http.MethodPatch)
	carts.HandleFunc("/items/{itemId}", controller.RemoveItem).Methods(http.MethodDelete)
	carts.Handle(
		"/coupons",
		middleware.RequireUser(middleware.RateLimit(couponLimiter)(http.HandlerFunc(controller.ApplyCoupon))),
	).Methods(http.MethodPost)
	carts.HandleFunc("/shipping", controller.SetShipping).Methods(http.MethodPut)
	carts.HandleFunc("/payment", controller.SetPayment).Methods(http.MethodPut)
	carts.HandleFunc("/saved-for-later", controller.SaveForLater).Methods(http.MethodPut)

	router.Handle("/coupons", middleware.RequireAdmin(http.HandlerFunc(controller.CreateCoupon))).
		Methods(http.MethodPost)
}

func writeCart(w http.ResponseWriter, r *http.Request, status int, message string, cart model.Cart) {
	inHttp.WriteJsonResponse(r.Context(), w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": status,
		"message":    message,
		"data": map[string]interface{}{
			"cart": response.FromCart(cart),
		},
	})
}

// decode reads and validates the request body into dst.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed decoding request body with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}
	if err := validate.Struct(r.Context(), dst); err != nil {
		return fmt.Errorf("failed validating request body with error=%w", err)
	}
	return nil
}

func itemIdFromPath(r *http.Request) (uuid.UUID, error) {
	pathValues := mux.Vars(r)
	itemId, err := uuid.Parse(pathValues["itemId"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed parsing itemId=%s with error=%w", pathValues["itemId"], fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}
	return itemId, nil
}

func (t CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetCart").
		Str(log.KeyProcess, "resolving cart owner").
		Logger()

	logger.Info().Msg("resolving cart owner")
	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Stringer(log.KeyCart, owner).Logger()
	logger.Info().Msg("resolved cart owner")

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	c = logger.WithContext(c)
	cart, err := t.service.GetCart(c, owner)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found cart")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully found cart", cart)
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Info().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("decoded request body")

	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Stringer(log.KeyCart, owner).Logger()

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	cart, err := t.service.AddItem(c, owner, reqBody)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added item")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully added item to cart", cart)
}

func (t CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateQuantity").
		Str(log.KeyProcess, "validating itemId").
		Logger()

	itemId, err := itemIdFromPath(r)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyCartItemID, itemId.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateQuantity{}
	if err = decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating quantity").Int32(log.KeyQuantity, reqBody.Quantity).Logger()
	logger.Info().Msg("updating quantity")
	c = logger.WithContext(c)
	cart, err := t.service.UpdateQuantity(c, owner, itemId, reqBody.Quantity)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated quantity")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully updated item quantity", cart)
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Str(log.KeyProcess, "validating itemId").
		Logger()

	itemId, err := itemIdFromPath(r)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyCartItemID, itemId.String()).Logger()

	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "removing item").Logger()
	logger.Info().Msg("removing item")
	c = logger.WithContext(c)
	cart, err := t.service.RemoveItem(c, owner, itemId)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed item")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully removed item from cart", cart)
}

func (t CartController) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ApplyCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController ApplyCoupon").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.ApplyCoupon{}
	if err := decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyCouponCode, reqBody.Code).Logger()

	logger = logger.With().Str(log.KeyProcess, "getting userId from jwtToken").Logger()
	userId, err := auth.UserIdFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	claims, _ := auth.ClaimsFromContext(c)
	logger = logger.With().Str(log.KeyUserID, userId.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "applying coupon").Logger()
	logger.Info().Msg("applying coupon")
	c = logger.WithContext(c)
	cart, err := t.service.ApplyCoupon(c, model.UserOwner(userId), reqBody.Code, userId, claims.Email)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("applied coupon")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully applied coupon", cart)
}

func (t CartController) SetShipping(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController SetShipping")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetShipping").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.SetShipping{}
	if err := decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "setting shipping").Logger()
	logger.Info().Msg("setting shipping")
	c = logger.WithContext(c)
	cart, err := t.service.SetShipping(c, owner, reqBody)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("set shipping")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully set shipping", cart)
}

func (t CartController) SetPayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController SetPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetPayment").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.SetPayment{}
	if err := decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "setting payment method").Logger()
	logger.Info().Msg("setting payment method")
	c = logger.WithContext(c)
	cart, err := t.service.SetPayment(c, owner, reqBody.PaymentMethodID)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("set payment method")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully set payment method", cart)
}

func (t CartController) SaveForLater(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController SaveForLater")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SaveForLater").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.SaveForLater{}
	if err := decode(r.WithContext(c), &reqBody); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	owner, err := ownerFromContext(c)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "saving cart for later").Logger()
	logger.Info().Msg("saving cart for later")
	c = logger.WithContext(c)
	cart, err := t.service.SaveForLater(c, owner, *reqBody.SavedForLater)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("saved cart for later")

	writeCart(w, r.WithContext(c), http.StatusOK, "successfully updated saved for later", cart)
}
