package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/Alturino/storefront/cart/internal/model"
)

type (
	setupFunc    func(context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *Store)
	teardownFunc func(*pgxpool.Pool, *postgres.PostgresContainer)
)

func setup(t *testing.T) setupFunc {
	return func(c context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *Store) {
		pgContainer, err := postgres.Run(
			c,
			"postgres:16.6-alpine3.21",
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.WithDatabase("storefront"),
			postgres.BasicWaitStrategies(),
			postgres.WithInitScripts(
				filepath.Join("..", "..", "migrations", "000001_create_products.up.sql"),
				filepath.Join("..", "..", "migrations", "000002_create_carts.up.sql"),
				filepath.Join("..", "..", "migrations", "000003_create_coupons.up.sql"),
			),
		)
		if err != nil {
			t.Fatalf("failed running postgres container with error: %s", err)
		}

		pgConnStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed getting postgres connection string with error: %s", err)
		}

		pgConfig, err := pgxpool.ParseConfig(pgConnStr)
		if err != nil {
			t.Fatalf("failed parsing pgconfig with error: %s", err)
		}
		pgConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
			pgxuuid.Register(conn.TypeMap())
			return nil
		}

		pool, err := pgxpool.NewWithConfig(c, pgConfig)
		if err != nil {
			t.Fatalf("failed creating postgres pool with error: %s", err)
		}
		if err = pool.Ping(c); err != nil {
			t.Fatalf("failed ping postgres pool with error: %s", err)
		}

		return pool, pgContainer, NewStore(pool)
	}
}

func teardown(t *testing.T) teardownFunc {
	return func(pool *pgxpool.Pool, pgContainer *postgres.PostgresContainer) {
		pool.Close()
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}
}

func seedProduct(t *testing.T, c context.Context, s *Store, stock int32) model.Product {
	product, err := s.InsertProduct(c, model.Product{
		Name:     "Linen Shirt",
		Price:    decimal.NewFromInt(20),
		Currency: "USD",
		Stock:    stock,
		Category: "apparel",
		Sizes:    []string{"S", "M", "L"},
		Colors:   []string{"white"},
	})
	if err != nil {
		t.Fatalf("failed seeding product with error: %s", err)
	}
	return product
}

func seedCoupon(t *testing.T, c context.Context, s *Store, total int32, perUser int32) model.Coupon {
	now := time.Now()
	coupon, err := s.InsertCoupon(c, model.Coupon{
		Code:                  "SPRING10-" + uuid.NewString()[:8],
		Description:           "10% off",
		DiscountType:          model.DiscountTypePercentage,
		DiscountValue:         decimal.NewFromInt(10),
		MinimumPurchaseAmount: decimal.Zero,
		StartDate:             now.Add(-time.Hour),
		EndDate:               now.Add(time.Hour),
		IsActive:              true,
		UsageLimit:            model.UsageLimit{Total: total, PerUser: perUser},
	})
	if err != nil {
		t.Fatalf("failed seeding coupon with error: %s", err)
	}
	return coupon
}
