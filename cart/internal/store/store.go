// Package store declares the persistence contracts the cart service relies on.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/cart/internal/model"
)

type ProductStore interface {
	// FindProductById returns errors.ErrNotFound when the product does not exist.
	FindProductById(c context.Context, id uuid.UUID) (model.Product, error)
	// DecrementStock takes quantity off the product stock only when enough is
	// left, otherwise it returns errors.ErrOutOfStock.
	DecrementStock(c context.Context, id uuid.UUID, quantity int32) error
}

type CartStore interface {
	FindCartByOwner(c context.Context, owner model.Owner) (model.Cart, error)
	// SaveCart inserts a new cart or updates an existing one guarded by its
	// version. A lost update returns errors.ErrConcurrency. The returned cart
	// carries the new version.
	SaveCart(c context.Context, cart model.Cart) (model.Cart, error)
}

type CouponStore interface {
	FindCouponByCode(c context.Context, code string) (model.Coupon, error)
	CountRedemptions(c context.Context, couponID uuid.UUID, userID uuid.UUID) (int32, error)
	// RecordRedemption bumps the global and per-user counters, each capped by
	// its limit. Hitting the global cap returns errors.ErrTotalLimitExceeded and
	// the per-user cap errors.ErrUserLimitExceeded; both match
	// errors.ErrLimitExceeded.
	RecordRedemption(c context.Context, couponID uuid.UUID, userID uuid.UUID) error
	InsertCoupon(c context.Context, coupon model.Coupon) (model.Coupon, error)
}

type Querier interface {
	ProductStore
	CartStore
	CouponStore
}

// Store runs fn inside one database transaction. Returning an error from fn
// rolls every write back.
type Store interface {
	Querier
	ExecTx(c context.Context, fn func(Querier) error) error
}
