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

const findCouponByCode = `-- name: FindCouponByCode :one
SELECT id, code, description, discount_type, discount_value, minimum_purchase_amount,
       start_date, end_date, is_active, usage_limit_total, usage_limit_per_user, times_used,
       applied_products, applied_categories, excluded_products, excluded_categories,
       created_at, updated_at
FROM coupons
WHERE code = $1
`

func (q *Queries) FindCouponByCode(c context.Context, code string) (model.Coupon, error) {
	var (
		coupon                     model.Coupon
		discountType               string
		discountValue, minPurchase pgtype.Numeric
	)
	err := q.db.QueryRow(c, findCouponByCode, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&discountType,
		&discountValue,
		&minPurchase,
		&coupon.StartDate,
		&coupon.EndDate,
		&coupon.IsActive,
		&coupon.UsageLimit.Total,
		&coupon.UsageLimit.PerUser,
		&coupon.TimesUsed,
		&coupon.AppliedProducts,
		&coupon.AppliedCategories,
		&coupon.ExcludedProducts,
		&coupon.ExcludedCategories,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Coupon{}, fmt.Errorf("couponCode=%s %w", code, inErrors.ErrNotFound)
		}
		return model.Coupon{}, err
	}
	coupon.DiscountType = model.DiscountType(discountType)
	coupon.DiscountValue = pg.Decimal(discountValue)
	coupon.MinimumPurchaseAmount = pg.Decimal(minPurchase)
	return coupon, nil
}

const countRedemptions = `-- name: CountRedemptions :one
SELECT COALESCE(
    (SELECT times_used FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2),
    0
)::integer
`

func (q *Queries) CountRedemptions(c context.Context, couponID uuid.UUID, userID uuid.UUID) (int32, error) {
	var count int32
	err := q.db.QueryRow(c, countRedemptions, couponID, userID).Scan(&count)
	return count, err
}

const incrementCouponUsage = `-- name: IncrementCouponUsage :execrows
UPDATE coupons
SET times_used = times_used + 1, updated_at = now()
WHERE id = $1 AND times_used < usage_limit_total
`

const incrementUserRedemption = `-- name: IncrementUserRedemption :execrows
INSERT INTO coupon_redemptions AS r (coupon_id, user_id, times_used)
SELECT id, $2, 1
FROM coupons
WHERE id = $1 AND usage_limit_per_user >= 1
ON CONFLICT (coupon_id, user_id) DO UPDATE
SET times_used = r.times_used + 1, updated_at = now()
WHERE r.times_used < (SELECT usage_limit_per_user FROM coupons WHERE id = $1)
`

func (q *Queries) RecordRedemption(c context.Context, couponID uuid.UUID, userID uuid.UUID) error {
	tag, err := q.db.Exec(c, incrementCouponUsage, couponID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("couponId=%s %w", couponID, inErrors.ErrTotalLimitExceeded)
	}

	tag, err = q.db.Exec(c, incrementUserRedemption, couponID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("couponId=%s userId=%s %w", couponID, userID, inErrors.ErrUserLimitExceeded)
	}
	return nil
}

const insertCoupon = `-- name: InsertCoupon :one
INSERT INTO coupons (
    id, code, description, discount_type, discount_value, minimum_purchase_amount,
    start_date, end_date, is_active, usage_limit_total, usage_limit_per_user,
    applied_products, applied_categories, excluded_products, excluded_categories
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING times_used, created_at, updated_at
`

func (q *Queries) InsertCoupon(c context.Context, coupon model.Coupon) (model.Coupon, error) {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.AppliedProducts = nonNil(coupon.AppliedProducts)
	coupon.AppliedCategories = nonNil(coupon.AppliedCategories)
	coupon.ExcludedProducts = nonNil(coupon.ExcludedProducts)
	coupon.ExcludedCategories = nonNil(coupon.ExcludedCategories)

	err := q.db.QueryRow(
		c,
		insertCoupon,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		string(coupon.DiscountType),
		pg.Numeric(coupon.DiscountValue),
		pg.Numeric(coupon.MinimumPurchaseAmount),
		coupon.StartDate,
		coupon.EndDate,
		coupon.IsActive,
		coupon.UsageLimit.Total,
		coupon.UsageLimit.PerUser,
		coupon.AppliedProducts,
		coupon.AppliedCategories,
		coupon.ExcludedProducts,
		coupon.ExcludedCategories,
	).Scan(&coupon.TimesUsed, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		switch {
		case pg.IsUniqueViolation(err):
			return model.Coupon{}, fmt.Errorf("couponCode=%s already exists %w", coupon.Code, inErrors.ErrValidation)
		case pg.IsCheckViolation(err):
			return model.Coupon{}, fmt.Errorf("couponCode=%s violates constraint %w", coupon.Code, inErrors.ErrValidation)
		}
		return model.Coupon{}, err
	}
	return coupon, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
