package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/cache"
	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/cart/pkg/request"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	commonOtel "github.com/Alturino/storefront/internal/otel"
)

// AddItem puts quantity units of a product variant into the owner's cart,
// creating the cart on first use. Re-adding the same variant merges quantities.
func (s *CartService) AddItem(c context.Context, owner model.Owner, param request.AddItem) (model.Cart, error) {
	return s.mutate(c, mutation{
		name:   "AddItem",
		owner:  owner,
		create: true,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyProductID, param.ProductID.String()).
				Int32(log.KeyQuantity, param.Quantity).
				Str(log.KeyProcess, "finding product").
				Logger()

			if param.Quantity < 1 {
				return fmt.Errorf("quantity=%d must be at least 1 %w", param.Quantity, inErrors.ErrValidation)
			}

			logger.Info().Msg("finding product")
			product, err := q.FindProductById(c, param.ProductID)
			if err != nil {
				return err
			}
			logger.Info().Msg("found product")

			logger = logger.With().Str(log.KeyProcess, "validating product").Logger()
			if product.Stock < param.Quantity {
				return fmt.Errorf("productId=%s stock=%d quantity=%d %w", product.ID, product.Stock, param.Quantity, inErrors.ErrOutOfStock)
			}
			if !product.OffersSize(param.Size) {
				return fmt.Errorf("productId=%s size=%s %w", product.ID, param.Size, inErrors.ErrInvalidAttribute)
			}
			if !product.OffersColor(param.Color) {
				return fmt.Errorf("productId=%s color=%s %w", product.ID, param.Color, inErrors.ErrInvalidAttribute)
			}
			if product.Currency != cart.Currency {
				return fmt.Errorf("productId=%s currency=%s differs from cart currency=%s %w", product.ID, product.Currency, cart.Currency, inErrors.ErrValidation)
			}
			logger.Info().Msg("validated product")

			if i, ok := cart.FindVariant(product.ID, param.Size, param.Color); ok {
				logger.Info().Msg("merging cart item")
				cart.Items[i].Quantity += param.Quantity
			} else {
				logger.Info().Msg("appending cart item")
				cart.Items = append(cart.Items, model.CartItem{
					ID:        uuid.New(),
					CartID:    cart.ID,
					ProductID: product.ID,
					Quantity:  param.Quantity,
					UnitPrice: product.Price,
					Category:  product.Category,
					Size:      param.Size,
					Color:     param.Color,
				})
			}

			logger = logger.With().Str(log.KeyProcess, "decrementing stock").Logger()
			logger.Info().Msg("decrementing stock")
			if err = q.DecrementStock(c, product.ID, param.Quantity); err != nil {
				return err
			}
			logger.Info().Msg("decremented stock")

			return nil
		},
	})
}

// RemoveItem drops an item from the owner's cart. Stock is not restored.
func (s *CartService) RemoveItem(c context.Context, owner model.Owner, itemID uuid.UUID) (model.Cart, error) {
	return s.mutate(c, mutation{
		name:  "RemoveItem",
		owner: owner,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			return removeItem(cart, itemID)
		},
	})
}

func removeItem(cart *model.Cart, itemID uuid.UUID) error {
	i, ok := cart.FindItem(itemID)
	if !ok {
		return fmt.Errorf("cartItemId=%s %w", itemID, inErrors.ErrNotFound)
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	return nil
}

// UpdateQuantity sets an item quantity. A quantity of zero or less removes the
// item. Raising the quantity takes the difference from stock; lowering it
// does not give stock back.
func (s *CartService) UpdateQuantity(c context.Context, owner model.Owner, itemID uuid.UUID, quantity int32) (model.Cart, error) {
	return s.mutate(c, mutation{
		name:  "UpdateQuantity",
		owner: owner,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			if quantity <= 0 {
				return removeItem(cart, itemID)
			}

			i, ok := cart.FindItem(itemID)
			if !ok {
				return fmt.Errorf("cartItemId=%s %w", itemID, inErrors.ErrNotFound)
			}

			item := cart.Items[i]
			if delta := quantity - item.Quantity; delta > 0 {
				logger := zerolog.Ctx(c).
					With().
					Str(log.KeyProductID, item.ProductID.String()).
					Int32(log.KeyQuantity, delta).
					Str(log.KeyProcess, "decrementing stock").
					Logger()
				logger.Info().Msg("decrementing stock")
				if err := q.DecrementStock(c, item.ProductID, delta); err != nil {
					return err
				}
				logger.Info().Msg("decremented stock")
			}
			cart.Items[i].Quantity = quantity

			return nil
		},
	})
}

func (s *CartService) SetShipping(c context.Context, owner model.Owner, param request.SetShipping) (model.Cart, error) {
	return s.mutate(c, mutation{
		name:  "SetShipping",
		owner: owner,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			if param.ShippingCost.IsNegative() {
				return fmt.Errorf("shippingCost=%s %w", param.ShippingCost, inErrors.ErrValidation)
			}
			cart.ShippingAddressID = param.ShippingAddressID
			cart.Totals.ShippingCost = param.ShippingCost
			return nil
		},
	})
}

func (s *CartService) SetPayment(c context.Context, owner model.Owner, paymentMethodID uuid.UUID) (model.Cart, error) {
	return s.mutate(c, mutation{
		name:  "SetPayment",
		owner: owner,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			cart.PaymentMethodID = paymentMethodID
			return nil
		},
	})
}

func (s *CartService) SaveForLater(c context.Context, owner model.Owner, saved bool) (model.Cart, error) {
	return s.mutate(c, mutation{
		name:  "SaveForLater",
		owner: owner,
		apply: func(c context.Context, q store.Querier, cart *model.Cart) error {
			cart.SavedForLater = saved
			return nil
		},
	})
}

// GetCart returns the owner's cart, serving it from cache when possible.
func (s *CartService) GetCart(c context.Context, owner model.Owner) (model.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetCart").
		Stringer(log.KeyCart, owner).
		Str(log.KeyProcess, "validating owner").
		Logger()

	if err := owner.Validate(); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Cart{}, err
	}

	c, cancel := s.withTimeout(c)
	defer cancel()
	c = logger.WithContext(c)

	if s.cache != nil {
		logger = logger.With().Str(log.KeyProcess, "finding cart in cache").Logger()
		logger.Info().Msg("finding cart in cache")
		cart, err := s.cache.Get(c, owner)
		if err == nil {
			logger.Info().Msg("found cart in cache")
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("failed reading cache, falling back to database")
		}
	}

	logger = logger.With().Str(log.KeyProcess, "finding cart in database").Logger()
	logger.Info().Msg("finding cart in database")
	cart, err := s.store.FindCartByOwner(c, owner)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", asTimeout(c, err))
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Info().Msg("found cart in database")

	if s.cache != nil {
		if err = s.cache.Set(c, cart); err != nil {
			logger.Warn().Err(err).Msg("failed inserting cart to cache")
		}
	}

	return cart, nil
}
