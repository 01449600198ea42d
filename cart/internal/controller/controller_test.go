package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/Alturino/storefront/cart/internal/cache"
	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/repository"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/notification/pkg/event"
)

const secretKey = "controller-test-secret"

type noCache struct{}

func (noCache) Get(context.Context, model.Owner) (model.Cart, error) {
	return model.Cart{}, cache.ErrCacheMiss
}
func (noCache) Set(context.Context, model.Cart) error                { return nil }
func (noCache) Invalidate(context.Context, model.Owner, int64) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.CouponRedeemed
}

func (p *recordingPublisher) PublishCouponRedeemed(c context.Context, evt event.CouponRedeemed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

type switchLimiter struct {
	allowed bool
}

func (l *switchLimiter) Allow(context.Context, string) (bool, error) {
	return l.allowed, nil
}

type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Cart   response.Cart   `json:"cart"`
		Coupon response.Coupon `json:"coupon"`
		Reason string          `json:"reason"`
	} `json:"data"`
}

type server struct {
	router    *mux.Router
	store     *repository.Store
	publisher *recordingPublisher
	limiter   *switchLimiter
}

func setupServer(t *testing.T, c context.Context) server {
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
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

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
	t.Cleanup(pool.Close)

	store := repository.NewStore(pool)
	publisher := &recordingPublisher{}
	limiter := &switchLimiter{allowed: true}
	svc := service.NewCartService(store, noCache{}, publisher, service.Config{
		Currency:       "USD",
		TaxPercentage:  decimal.NewFromInt(8),
		RequestTimeout: 5 * time.Second,
	})

	router := mux.NewRouter()
	router.Use(middleware.Auth(secretKey))
	AttachCartController(router, svc, limiter)

	return server{router: router, store: store, publisher: publisher, limiter: limiter}
}

type call struct {
	method  string
	path    string
	body    interface{}
	token   string
	session string
}

func (s server) do(t *testing.T, req call) (int, envelope) {
	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}
	r := httptest.NewRequest(req.method, req.path, &body)
	if req.token != "" {
		r.Header.Set(inHttp.HeaderAuthorization, "Bearer "+req.token)
	}
	if req.session != "" {
		r.Header.Set(inHttp.HeaderSessionID, req.session)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)

	res := envelope{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	return w.Code, res
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	signed, err := auth.NewToken(secretKey, userID, "shopper@example.com", role, time.Hour)
	require.NoError(t, err)
	return signed
}

func TestCartController(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	c := context.Background()
	s := setupServer(t, c)

	product, err := s.store.InsertProduct(c, model.Product{
		Name:     "Linen Shirt",
		Price:    decimal.NewFromInt(20),
		Currency: "USD",
		Stock:    10,
		Category: "apparel",
		Sizes:    []string{"S", "M"},
	})
	require.NoError(t, err)

	userID := uuid.New()
	userToken := token(t, userID, auth.RoleUser)
	adminToken := token(t, uuid.New(), auth.RoleAdmin)

	t.Run("missing owner is unauthorized", func(t *testing.T) {
		status, res := s.do(t, call{method: http.MethodGet, path: "/carts"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, inHttp.StatusFailed, res.Status)
	})

	t.Run("guest adds an item", func(t *testing.T) {
		status, res := s.do(t, call{
			method:  http.MethodPost,
			path:    "/carts/items",
			session: "guest-session",
			body:    map[string]interface{}{"productId": product.ID, "quantity": 2, "selectedSize": "M"},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.Equal(t, "guest-session", res.Data.Cart.SessionID)
		require.Len(t, res.Data.Cart.Items, 1)
		assert.True(t, decimal.NewFromInt(40).Equal(res.Data.Cart.Subtotal))
	})

	t.Run("invalid body is rejected", func(t *testing.T) {
		status, _ := s.do(t, call{
			method:  http.MethodPost,
			path:    "/carts/items",
			session: "guest-session",
			body:    map[string]interface{}{"productId": product.ID, "quantity": 0},
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("invalid item id is rejected", func(t *testing.T) {
		status, _ := s.do(t, call{
			method:  http.MethodDelete,
			path:    "/carts/items/not-a-uuid",
			session: "guest-session",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("guest cannot apply a coupon", func(t *testing.T) {
		status, _ := s.do(t, call{
			method:  http.MethodPost,
			path:    "/carts/coupons",
			session: "guest-session",
			body:    map[string]string{"code": "SPRING10"},
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("non admin cannot create a coupon", func(t *testing.T) {
		status, _ := s.do(t, call{
			method: http.MethodPost,
			path:   "/coupons",
			token:  userToken,
			body:   map[string]string{"code": "SPRING10"},
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("user flow with coupon", func(t *testing.T) {
		now := time.Now()
		status, res := s.do(t, call{
			method: http.MethodPost,
			path:   "/coupons",
			token:  adminToken,
			body: map[string]interface{}{
				"code":                  "spring10",
				"description":           "10% off",
				"discountType":          "percentage",
				"discountValue":         10,
				"minimumPurchaseAmount": 30,
				"startDate":             now.Add(-time.Hour),
				"endDate":               now.Add(time.Hour),
				"usageLimit":            map[string]int{"total": 5, "perUser": 1},
			},
		})
		require.Equal(t, http.StatusCreated, status, res.Message)
		assert.Equal(t, "SPRING10", res.Data.Coupon.Code)

		status, res = s.do(t, call{
			method: http.MethodPost,
			path:   "/carts/items",
			token:  userToken,
			body:   map[string]interface{}{"productId": product.ID, "quantity": 1},
		})
		require.Equal(t, http.StatusOK, status, res.Message)

		status, res = s.do(t, call{
			method: http.MethodPost,
			path:   "/carts/coupons",
			token:  userToken,
			body:   map[string]string{"code": "SPRING10"},
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(inErrors.ReasonMinimumPurchaseNotMet), res.Data.Reason)

		status, res = s.do(t, call{method: http.MethodGet, path: "/carts", token: userToken})
		require.Equal(t, http.StatusOK, status)
		require.Len(t, res.Data.Cart.Items, 1)

		status, res = s.do(t, call{
			method: http.MethodPatch,
			path:   "/carts/items/" + res.Data.Cart.Items[0].ID.String(),
			token:  userToken,
			body:   map[string]int{"quantity": 2},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.True(t, decimal.NewFromInt(40).Equal(res.Data.Cart.Subtotal))

		status, res = s.do(t, call{
			method: http.MethodPost,
			path:   "/carts/coupons",
			token:  userToken,
			body:   map[string]string{"code": "spring10"},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		cart := res.Data.Cart
		assert.True(t, decimal.NewFromInt(4).Equal(cart.DiscountAmount))
		assert.True(t, decimal.RequireFromString("3.2").Equal(cart.Tax.TaxAmount))
		assert.True(t, decimal.RequireFromString("39.2").Equal(cart.Total))
		require.Len(t, cart.DiscountsApplied, 1)

		s.publisher.mu.Lock()
		require.Len(t, s.publisher.events, 1)
		assert.Equal(t, userID, s.publisher.events[0].UserID)
		assert.Equal(t, "shopper@example.com", s.publisher.events[0].Email)
		s.publisher.mu.Unlock()
	})

	t.Run("shipping payment and saved for later", func(t *testing.T) {
		addressID := uuid.New()
		status, res := s.do(t, call{
			method: http.MethodPut,
			path:   "/carts/shipping",
			token:  userToken,
			body:   map[string]interface{}{"shippingAddressId": addressID, "shippingCost": "5.50"},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.Equal(t, addressID, *res.Data.Cart.ShippingAddressID)
		assert.True(t, decimal.RequireFromString("5.5").Equal(res.Data.Cart.ShippingCost))

		paymentID := uuid.New()
		status, res = s.do(t, call{
			method: http.MethodPut,
			path:   "/carts/payment",
			token:  userToken,
			body:   map[string]interface{}{"paymentMethodId": paymentID},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.Equal(t, paymentID, *res.Data.Cart.PaymentMethodID)

		status, res = s.do(t, call{
			method: http.MethodPut,
			path:   "/carts/saved-for-later",
			token:  userToken,
			body:   map[string]interface{}{"savedForLater": true},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.True(t, res.Data.Cart.SavedForLater)

		status, _ = s.do(t, call{
			method: http.MethodPut,
			path:   "/carts/saved-for-later",
			token:  userToken,
			body:   map[string]interface{}{},
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("remove item", func(t *testing.T) {
		_, res := s.do(t, call{method: http.MethodGet, path: "/carts", session: "guest-session"})
		require.Len(t, res.Data.Cart.Items, 1)

		status, res := s.do(t, call{
			method:  http.MethodDelete,
			path:    "/carts/items/" + res.Data.Cart.Items[0].ID.String(),
			session: "guest-session",
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.Empty(t, res.Data.Cart.Items)
		assert.True(t, res.Data.Cart.Total.IsZero())
	})

	t.Run("negative quantity removes the item", func(t *testing.T) {
		status, res := s.do(t, call{
			method:  http.MethodPost,
			path:    "/carts/items",
			session: "second-session",
			body:    map[string]interface{}{"productId": product.ID, "quantity": 1, "selectedSize": "S"},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		require.Len(t, res.Data.Cart.Items, 1)

		status, res = s.do(t, call{
			method:  http.MethodPatch,
			path:    "/carts/items/" + res.Data.Cart.Items[0].ID.String(),
			session: "second-session",
			body:    map[string]int{"quantity": -1},
		})
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.Empty(t, res.Data.Cart.Items)
		assert.True(t, res.Data.Cart.Subtotal.IsZero())
	})

	t.Run("coupon attempts are rate limited", func(t *testing.T) {
		s.limiter.allowed = false
		defer func() { s.limiter.allowed = true }()

		status, _ := s.do(t, call{
			method: http.MethodPost,
			path:   "/carts/coupons",
			token:  userToken,
			body:   map[string]string{"code": "SPRING10"},
		})
		assert.Equal(t, http.StatusTooManyRequests, status)
	})
}
