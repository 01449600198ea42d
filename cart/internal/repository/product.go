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

const findProductById = `-- name: FindProductById :one
SELECT id, name, price, currency, stock, category, sizes, colors, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (model.Product, error) {
	var (
		p     model.Product
		price pgtype.Numeric
	)
	err := q.db.QueryRow(c, findProductById, id).Scan(
		&p.ID,
		&p.Name,
		&price,
		&p.Currency,
		&p.Stock,
		&p.Category,
		&p.Sizes,
		&p.Colors,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("productId=%s %w", id, inErrors.ErrNotFound)
		}
		return model.Product{}, err
	}
	p.Price = pg.Decimal(price)
	return p, nil
}

const decrementStock = `-- name: DecrementStock :execrows
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
`

func (q *Queries) DecrementStock(c context.Context, id uuid.UUID, quantity int32) error {
	tag, err := q.db.Exec(c, decrementStock, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("productId=%s quantity=%d %w", id, quantity, inErrors.ErrOutOfStock)
	}
	return nil
}

const insertProduct = `-- name: InsertProduct :one
INSERT INTO products (id, name, price, currency, stock, category, sizes, colors)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at
`

func (q *Queries) InsertProduct(c context.Context, p model.Product) (model.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	err := q.db.QueryRow(
		c,
		insertProduct,
		p.ID,
		p.Name,
		pg.Numeric(p.Price),
		p.Currency,
		p.Stock,
		p.Category,
		p.Sizes,
		p.Colors,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}
