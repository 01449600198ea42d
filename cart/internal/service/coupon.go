package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/cart/pkg/request"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	commonOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/notification/pkg/event"
)

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyCoupon validates code against the owner's cart and, when accepted,
// records the redemption and the cart discount in the same transaction.
// A rejection leaves the cart and the coupon counters untouched.
func (s *CartService) ApplyCoupon(
	c context.Context,
	owner model.Owner,
	code string,
	userID uuid.UUID,
	email string,
) (model.Cart, error) {
	code = NormalizeCode(code)
	if userID == uuid.Nil {
		return model.Cart{}, fmt.Errorf("failed ApplyCoupon couponCode=%s with error=%w", code, inErrors.ErrEmptyAuth)
	}

	var applied model.AppliedCoupon
	cart, err := s.mutate(c, mutation{
		name:  "ApplyCoupon",
		owner: owner,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyCouponCode, code).
				Str(log.KeyUserID, userID.String()).
				Str(log.KeyProcess, "finding coupon").
				Logger()

			logger.Info().Msg("finding coupon")
			coupon, err := q.FindCouponByCode(c, code)
			if err != nil {
				if errors.Is(err, inErrors.ErrNotFound) {
					return inErrors.NewCouponRejected(code, inErrors.ReasonCouponNotFound)
				}
				return err
			}
			logger = logger.With().Str(log.KeyCouponID, coupon.ID.String()).Logger()
			logger.Info().Msg("found coupon")

			if cart.HasCoupon() {
				return inErrors.NewCouponRejected(code, inErrors.ReasonAlreadyApplied)
			}

			logger = logger.With().Str(log.KeyProcess, "counting user redemptions").Logger()
			coupon.UserRedemptions, err = q.CountRedemptions(c, coupon.ID, userID)
			if err != nil {
				return err
			}

			logger = logger.With().Str(log.KeyProcess, "evaluating coupon").Logger()
			logger.Info().Msg("evaluating coupon")
			discount, err := s.validator.Evaluate(&coupon, *cart, s.now())
			if err != nil {
				return err
			}
			logger = logger.With().Stringer(log.KeyDiscount, discount).Logger()
			logger.Info().Msg("accepted coupon")

			logger = logger.With().Str(log.KeyProcess, "recording redemption").Logger()
			logger.Info().Msg("recording redemption")
			if err = q.RecordRedemption(c, coupon.ID, userID); err != nil {
				switch {
				case errors.Is(err, inErrors.ErrUserLimitExceeded):
					logger.Info().Err(err).Msg("lost per user redemption race")
					return inErrors.NewCouponRejected(code, inErrors.ReasonUserLimitReached)
				case errors.Is(err, inErrors.ErrLimitExceeded):
					logger.Info().Err(err).Msg("lost total redemption race")
					return inErrors.NewCouponRejected(code, inErrors.ReasonUsageLimitReached)
				}
				return err
			}
			logger.Info().Msg("recorded redemption")

			applied = model.AppliedCoupon{
				CouponID:      coupon.ID,
				Code:          coupon.Code,
				Description:   coupon.Description,
				DiscountType:  coupon.DiscountType,
				DiscountValue: coupon.DiscountValue,
				Amount:        discount,
			}
			cart.Coupons = append(cart.Coupons, applied)

			return nil
		},
		afterCommit: func(c context.Context, cart model.Cart) {
			if s.publisher == nil {
				return
			}
			logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "publishing coupon redeemed").Logger()
			err := s.publisher.PublishCouponRedeemed(c, event.CouponRedeemed{
				CartID:     cart.ID,
				CouponID:   applied.CouponID,
				UserID:     userID,
				Email:      email,
				Code:       applied.Code,
				Amount:     cart.Totals.DiscountAmount,
				Currency:   cart.Currency,
				RedeemedAt: s.now(),
			})
			if err != nil {
				err = fmt.Errorf("failed publishing coupon redeemed with error=%w", err)
				commonOtel.RecordError(err, trace.SpanFromContext(c))
				logger.Warn().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("published coupon redeemed")
		},
	})

	var rejected *inErrors.CouponRejectedError
	switch {
	case err == nil:
		metrics.CouponApplications.WithLabelValues(metrics.ResultSuccess, "").Inc()
	case errors.As(err, &rejected):
		metrics.CouponApplications.WithLabelValues(metrics.ResultFailed, string(rejected.Reason)).Inc()
	default:
		metrics.CouponApplications.WithLabelValues(metrics.ResultFailed, "").Inc()
	}
	return cart, err
}

// CreateCoupon stores a new coupon. Codes are kept upper case.
func (s *CartService) CreateCoupon(c context.Context, param request.CreateCoupon) (model.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CartService CreateCoupon")
	defer span.End()

	code := NormalizeCode(param.Code)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService CreateCoupon").
		Str(log.KeyCouponCode, code).
		Str(log.KeyProcess, "validating coupon").
		Logger()

	discountType := model.DiscountType(param.DiscountType)
	var err error
	switch {
	case !discountType.Valid():
		err = fmt.Errorf("discountType=%s %w", param.DiscountType, inErrors.ErrValidation)
	case !param.DiscountValue.IsPositive():
		err = fmt.Errorf("discountValue=%s must be positive %w", param.DiscountValue, inErrors.ErrValidation)
	case discountType == model.DiscountTypePercentage && param.DiscountValue.GreaterThan(hundredPercent):
		err = fmt.Errorf("discountValue=%s exceeds 100 percent %w", param.DiscountValue, inErrors.ErrValidation)
	case param.MinimumPurchaseAmount.IsNegative():
		err = fmt.Errorf("minimumPurchaseAmount=%s %w", param.MinimumPurchaseAmount, inErrors.ErrValidation)
	case !param.StartDate.Before(param.EndDate):
		err = fmt.Errorf("startDate=%s must be before endDate=%s %w", param.StartDate, param.EndDate, inErrors.ErrValidation)
	case param.UsageLimit.Total < 0 || param.UsageLimit.PerUser < 0:
		err = fmt.Errorf("usageLimit=%+v %w", param.UsageLimit, inErrors.ErrValidation)
	}
	if err != nil {
		err = fmt.Errorf("failed validating coupon with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Coupon{}, err
	}
	logger.Info().Msg("validated coupon")

	isActive := true
	if param.IsActive != nil {
		isActive = *param.IsActive
	}

	c, cancel := s.withTimeout(c)
	defer cancel()

	logger = logger.With().Str(log.KeyProcess, "inserting coupon").Logger()
	logger.Info().Msg("inserting coupon")
	coupon, err := s.store.InsertCoupon(logger.WithContext(c), model.Coupon{
		ID:                    uuid.New(),
		Code:                  code,
		Description:           param.Description,
		DiscountType:          discountType,
		DiscountValue:         param.DiscountValue,
		MinimumPurchaseAmount: param.MinimumPurchaseAmount,
		StartDate:             param.StartDate,
		EndDate:               param.EndDate,
		IsActive:              isActive,
		UsageLimit:            model.UsageLimit{Total: param.UsageLimit.Total, PerUser: param.UsageLimit.PerUser},
		AppliedProducts:       param.AppliedProducts,
		AppliedCategories:     param.AppliedCategories,
		ExcludedProducts:      param.ExcludedProducts,
		ExcludedCategories:    param.ExcludedCategories,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting coupon with error=%w", asTimeout(c, err))
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Coupon{}, err
	}
	logger = logger.With().Str(log.KeyCouponID, coupon.ID.String()).Logger()
	logger.Info().Msg("inserted coupon")

	return coupon, nil
}
