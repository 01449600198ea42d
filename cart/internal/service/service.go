package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/internal/cache"
	"github.com/Alturino/storefront/cart/internal/coupon"
	"github.com/Alturino/storefront/cart/internal/event"
	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/pricing"
	"github.com/Alturino/storefront/cart/internal/store"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	commonOtel "github.com/Alturino/storefront/internal/otel"
)

const DefaultMaxAttempts = 3

var hundredPercent = decimal.NewFromInt(100)

type Config struct {
	Currency       string
	TaxPercentage  decimal.Decimal
	RequestTimeout time.Duration
	MaxAttempts    int
}

type CartService struct {
	store     store.Store
	cache     cache.CartCache
	publisher event.Publisher
	pricing   pricing.Engine
	validator coupon.Validator
	cfg       Config
	now       func() time.Time
}

func NewCartService(
	store store.Store,
	cache cache.CartCache,
	publisher event.Publisher,
	cfg Config,
) *CartService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &CartService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		pricing:   pricing.NewEngine(),
		validator: coupon.NewValidator(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// mutation describes one cart change that runs inside a transaction.
type mutation struct {
	name   string
	owner  model.Owner
	create bool
	apply  func(c context.Context, q store.Querier, cart *model.Cart) error
	// afterCommit runs once the transaction has committed. It cannot fail the
	// mutation.
	afterCommit func(c context.Context, cart model.Cart)
}

func (s *CartService) withTimeout(c context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout <= 0 {
		return context.WithCancel(c)
	}
	return context.WithTimeout(c, s.cfg.RequestTimeout)
}

func asTimeout(c context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(c.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", inErrors.ErrTimeout, err)
	}
	return err
}

// mutate loads the owner's cart, applies m, recomputes totals and saves the
// cart in one transaction. Version conflicts retry the whole unit.
func (s *CartService) mutate(c context.Context, m mutation) (model.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService "+m.name)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService "+m.name).
		Str(log.KeyProcess, "validating owner").
		Stringer(log.KeyCart, m.owner).
		Logger()

	if err := m.owner.Validate(); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metrics.CartOperations.WithLabelValues(m.name, metrics.ResultFailed).Inc()
		return model.Cart{}, err
	}

	c, cancel := s.withTimeout(c)
	defer cancel()

	var (
		saved model.Cart
		err   error
	)
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		txLogger := logger.With().Str(log.KeyProcess, "running transaction").Int(log.KeyAttempt, attempt).Logger()
		txLogger.Info().Msg("running transaction")
		c := txLogger.WithContext(c)

		err = s.store.ExecTx(c, func(q store.Querier) error {
			cart, err := s.loadCart(c, q, m.owner, m.create)
			if err != nil {
				return err
			}
			if cart.Status != model.CartStatusActive {
				return fmt.Errorf("cartId=%s status=%s is not active %w", cart.ID, cart.Status, inErrors.ErrValidation)
			}

			working := cart.Clone()
			if err = m.apply(c, q, &working); err != nil {
				return err
			}
			if err = s.recompute(&working); err != nil {
				return err
			}

			saved, err = q.SaveCart(c, working)
			return err
		})
		if err == nil || !errors.Is(err, inErrors.ErrConcurrency) || attempt == s.cfg.MaxAttempts {
			break
		}
		metrics.ConcurrencyRetries.Inc()
		txLogger.Warn().Err(err).Msg("version conflict, retrying")
		span.AddEvent("retrying after version conflict")
	}
	if err != nil {
		err = asTimeout(c, err)
		err = fmt.Errorf("failed %s with error=%w", m.name, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metrics.CartOperations.WithLabelValues(m.name, metrics.ResultFailed).Inc()
		return model.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, saved.ID.String()).Int64(log.KeyCartVersion, saved.Version).Logger()
	logger.Info().Msg("committed cart")

	s.invalidate(logger.WithContext(c), m.owner, saved.Version)
	if m.afterCommit != nil {
		m.afterCommit(logger.WithContext(c), saved)
	}
	metrics.CartOperations.WithLabelValues(m.name, metrics.ResultSuccess).Inc()

	return saved, nil
}

func (s *CartService) loadCart(c context.Context, q store.Querier, owner model.Owner, create bool) (model.Cart, error) {
	cart, err := q.FindCartByOwner(c, owner)
	if err == nil {
		return cart, nil
	}
	if create && errors.Is(err, inErrors.ErrNotFound) {
		return model.NewCart(owner, s.cfg.Currency, s.cfg.TaxPercentage), nil
	}
	return model.Cart{}, err
}

// recompute refreshes applied coupon amounts against the current subtotal and
// derives the cart totals.
func (s *CartService) recompute(cart *model.Cart) error {
	subtotal := pricing.Subtotal(cart.Items)
	discount := decimal.Zero
	for i, applied := range cart.Coupons {
		amount := pricing.Discount(applied.DiscountType, applied.DiscountValue, subtotal)
		cart.Coupons[i].Amount = amount
		discount = discount.Add(amount)
	}

	totals, err := s.pricing.Compute(cart.Items, cart.Totals.TaxPercentage, cart.Totals.ShippingCost, discount)
	if err != nil {
		return err
	}
	cart.Totals = totals
	return nil
}

// invalidate drops the cached cart after a commit and fences out older
// versions. A failure leaves a stale entry that expires with the cache ttl.
func (s *CartService) invalidate(c context.Context, owner model.Owner, version int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(c, owner, version); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Msg("failed invalidating cached cart")
	}
}
