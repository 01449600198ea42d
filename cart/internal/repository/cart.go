package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Alturino/storefront/cart/internal/model"
	inErrors "github.com/Alturino/storefront/internal/errors"
	pg "github.com/Alturino/storefront/internal/repository"
)

const cartColumns = `id, user_id, session_id, currency, subtotal, tax_percentage, tax_amount,
discount_amount, shipping_cost, total, shipping_address_id, payment_method_id,
saved_for_later, status, version, created_at, updated_at`

const findCartByUserId = `-- name: FindCartByUserId :one
SELECT ` + cartColumns + `
FROM carts
WHERE user_id = $1
`

const findCartBySessionId = `-- name: FindCartBySessionId :one
SELECT ` + cartColumns + `
FROM carts
WHERE session_id = $1
`

const findCartItems = `-- name: FindCartItems :many
SELECT id, cart_id, product_id, quantity, unit_price, category, size, color, created_at, updated_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at, id
`

const findCartCoupons = `-- name: FindCartCoupons :many
SELECT coupon_id, code, description, discount_type, discount_value, amount
FROM cart_coupons
WHERE cart_id = $1
ORDER BY created_at
`

func (q *Queries) FindCartByOwner(c context.Context, owner model.Owner) (model.Cart, error) {
	var row pgx.Row
	if owner.IsGuest() {
		row = q.db.QueryRow(c, findCartBySessionId, owner.SessionID)
	} else {
		row = q.db.QueryRow(c, findCartByUserId, owner.UserID)
	}
	cart, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cart{}, fmt.Errorf("cart of owner=%s %w", owner, inErrors.ErrNotFound)
		}
		return model.Cart{}, err
	}

	cart.Items, err = q.findCartItems(c, cart.ID)
	if err != nil {
		return model.Cart{}, err
	}
	cart.Coupons, err = q.findCartCoupons(c, cart.ID)
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func scanCart(row pgx.Row) (model.Cart, error) {
	var (
		cart                                                          model.Cart
		userID, shippingAddressID, paymentMethodID                    pgtype.UUID
		sessionID                                                     pgtype.Text
		subtotal, taxPercentage, taxAmount, discount, shipping, total pgtype.Numeric
		status                                                        string
	)
	err := row.Scan(
		&cart.ID,
		&userID,
		&sessionID,
		&cart.Currency,
		&subtotal,
		&taxPercentage,
		&taxAmount,
		&discount,
		&shipping,
		&total,
		&shippingAddressID,
		&paymentMethodID,
		&cart.SavedForLater,
		&status,
		&cart.Version,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return model.Cart{}, err
	}
	cart.Owner = model.Owner{UserID: pg.UUID(userID), SessionID: pg.Text(sessionID)}
	cart.Totals = model.Totals{
		Subtotal:       pg.Decimal(subtotal),
		TaxPercentage:  pg.Decimal(taxPercentage),
		TaxAmount:      pg.Decimal(taxAmount),
		DiscountAmount: pg.Decimal(discount),
		ShippingCost:   pg.Decimal(shipping),
		Total:          pg.Decimal(total),
	}
	cart.ShippingAddressID = pg.UUID(shippingAddressID)
	cart.PaymentMethodID = pg.UUID(paymentMethodID)
	cart.Status = model.CartStatus(status)
	return cart, nil
}

func (q *Queries) findCartItems(c context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	rows, err := q.db.Query(c, findCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var (
			item      model.CartItem
			unitPrice pgtype.Numeric
		)
		err = rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&unitPrice,
			&item.Category,
			&item.Size,
			&item.Color,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = pg.Decimal(unitPrice)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *Queries) findCartCoupons(c context.Context, cartID uuid.UUID) ([]model.AppliedCoupon, error) {
	rows, err := q.db.Query(c, findCartCoupons, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := []model.AppliedCoupon{}
	for rows.Next() {
		var (
			applied       model.AppliedCoupon
			discountType  string
			value, amount pgtype.Numeric
		)
		err = rows.Scan(
			&applied.CouponID,
			&applied.Code,
			&applied.Description,
			&discountType,
			&value,
			&amount,
		)
		if err != nil {
			return nil, err
		}
		applied.DiscountType = model.DiscountType(discountType)
		applied.DiscountValue = pg.Decimal(value)
		applied.Amount = pg.Decimal(amount)
		coupons = append(coupons, applied)
	}
	return coupons, rows.Err()
}

const insertCart = `-- name: InsertCart :one
INSERT INTO carts (
    id, user_id, session_id, currency, subtotal, tax_percentage, tax_amount,
    discount_amount, shipping_cost, total, shipping_address_id, payment_method_id,
    saved_for_later, status, version
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
RETURNING version, created_at, updated_at
`

const updateCart = `-- name: UpdateCart :one
UPDATE carts
SET currency = $3,
    subtotal = $4,
    tax_percentage = $5,
    tax_amount = $6,
    discount_amount = $7,
    shipping_cost = $8,
    total = $9,
    shipping_address_id = $10,
    payment_method_id = $11,
    saved_for_later = $12,
    status = $13,
    version = version + 1,
    updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version, created_at, updated_at
`

const deleteStaleCartItems = `-- name: DeleteStaleCartItems :exec
DELETE FROM cart_items
WHERE cart_id = $1 AND NOT (id = ANY($2::uuid[]))
`

const upsertCartItem = `-- name: UpsertCartItem :exec
INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, category, size, color)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET quantity = EXCLUDED.quantity, updated_at = now()
WHERE cart_items.quantity <> EXCLUDED.quantity
`

const deleteCartCoupons = `-- name: DeleteCartCoupons :exec
DELETE FROM cart_coupons
WHERE cart_id = $1
`

const insertCartCoupon = `-- name: InsertCartCoupon :exec
INSERT INTO cart_coupons (cart_id, coupon_id, code, description, discount_type, discount_value, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// SaveCart writes the cart row then syncs its items and applied coupons.
// Callers run it inside a transaction so the row and its children stay consistent.
func (q *Queries) SaveCart(c context.Context, cart model.Cart) (model.Cart, error) {
	saved := cart.Clone()

	var row pgx.Row
	if cart.IsNew() {
		row = q.db.QueryRow(
			c,
			insertCart,
			cart.ID,
			pg.NullUUID(cart.Owner.UserID),
			pg.NullText(cart.Owner.SessionID),
			cart.Currency,
			pg.Numeric(cart.Totals.Subtotal),
			pg.Numeric(cart.Totals.TaxPercentage),
			pg.Numeric(cart.Totals.TaxAmount),
			pg.Numeric(cart.Totals.DiscountAmount),
			pg.Numeric(cart.Totals.ShippingCost),
			pg.Numeric(cart.Totals.Total),
			pg.NullUUID(cart.ShippingAddressID),
			pg.NullUUID(cart.PaymentMethodID),
			cart.SavedForLater,
			string(cart.Status),
		)
	} else {
		row = q.db.QueryRow(
			c,
			updateCart,
			cart.ID,
			cart.Version,
			cart.Currency,
			pg.Numeric(cart.Totals.Subtotal),
			pg.Numeric(cart.Totals.TaxPercentage),
			pg.Numeric(cart.Totals.TaxAmount),
			pg.Numeric(cart.Totals.DiscountAmount),
			pg.Numeric(cart.Totals.ShippingCost),
			pg.Numeric(cart.Totals.Total),
			pg.NullUUID(cart.ShippingAddressID),
			pg.NullUUID(cart.PaymentMethodID),
			cart.SavedForLater,
			string(cart.Status),
		)
	}
	err := row.Scan(&saved.Version, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return model.Cart{}, fmt.Errorf("cartId=%s version=%d %w", cart.ID, cart.Version, inErrors.ErrConcurrency)
		case pg.IsUniqueViolation(err):
			return model.Cart{}, fmt.Errorf("cart of owner=%s already exists %w", cart.Owner, inErrors.ErrConcurrency)
		case pg.IsCheckViolation(err):
			return model.Cart{}, fmt.Errorf("cartId=%s violates constraint %w", cart.ID, inErrors.ErrValidation)
		}
		return model.Cart{}, err
	}

	ids := make([]uuid.UUID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ID
	}
	if _, err = q.db.Exec(c, deleteStaleCartItems, cart.ID, ids); err != nil {
		return model.Cart{}, err
	}
	if _, err = q.db.Exec(c, deleteCartCoupons, cart.ID); err != nil {
		return model.Cart{}, err
	}

	batch := &pgx.Batch{}
	for i, item := range cart.Items {
		saved.Items[i].CartID = cart.ID
		batch.Queue(
			upsertCartItem,
			item.ID,
			cart.ID,
			item.ProductID,
			item.Quantity,
			pg.Numeric(item.UnitPrice),
			item.Category,
			item.Size,
			item.Color,
		)
	}
	for _, applied := range cart.Coupons {
		batch.Queue(
			insertCartCoupon,
			cart.ID,
			applied.CouponID,
			applied.Code,
			applied.Description,
			string(applied.DiscountType),
			pg.Numeric(applied.DiscountValue),
			pg.Numeric(applied.Amount),
		)
	}
	if batch.Len() > 0 {
		if err = q.db.SendBatch(c, batch).Close(); err != nil {
			if pg.IsCheckViolation(err) {
				return model.Cart{}, fmt.Errorf("cartId=%s items violate constraint %w", cart.ID, inErrors.ErrValidation)
			}
			return model.Cart{}, err
		}
	}

	return saved, nil
}
