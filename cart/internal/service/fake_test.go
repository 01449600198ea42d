package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/cart/internal/cache"
	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/store"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/notification/pkg/event"
)

type redemptionKey struct {
	couponID uuid.UUID
	userID   uuid.UUID
}

type fakeData struct {
	products    map[uuid.UUID]model.Product
	carts       map[string]model.Cart
	coupons     map[string]model.Coupon
	redemptions map[redemptionKey]int32
}

func (d fakeData) clone() fakeData {
	out := fakeData{
		products:    make(map[uuid.UUID]model.Product, len(d.products)),
		carts:       make(map[string]model.Cart, len(d.carts)),
		coupons:     make(map[string]model.Coupon, len(d.coupons)),
		redemptions: make(map[redemptionKey]int32, len(d.redemptions)),
	}
	for k, v := range d.products {
		out.products[k] = v
	}
	for k, v := range d.carts {
		out.carts[k] = v.Clone()
	}
	for k, v := range d.coupons {
		out.coupons[k] = v
	}
	for k, v := range d.redemptions {
		out.redemptions[k] = v
	}
	return out
}

// fakeStore serializes transactions behind one mutex and restores a snapshot
// when a transaction fails.
type fakeStore struct {
	mu   sync.Mutex
	data fakeData

	// saveConflicts makes the next n SaveCart calls fail with a version conflict.
	saveConflicts int
	// blockSave makes SaveCart wait until the context is done.
	blockSave bool
	saveCalls int
	commitErr error
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{data: fakeData{
		products:    map[uuid.UUID]model.Product{},
		carts:       map[string]model.Cart{},
		coupons:     map[string]model.Coupon{},
		redemptions: map[redemptionKey]int32{},
	}}
}

func (f *fakeStore) ExecTx(c context.Context, fn func(store.Querier) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.data.clone()
	if err := fn(fakeTx{f}); err != nil {
		f.data = snapshot
		return err
	}
	if f.commitErr != nil {
		f.data = snapshot
		return f.commitErr
	}
	return nil
}

func (f *fakeStore) FindProductById(c context.Context, id uuid.UUID) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.FindProductById(c, id)
}

func (f *fakeStore) DecrementStock(c context.Context, id uuid.UUID, quantity int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.DecrementStock(c, id, quantity)
}

func (f *fakeStore) FindCartByOwner(c context.Context, owner model.Owner) (model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.FindCartByOwner(c, owner)
}

func (f *fakeStore) SaveCart(c context.Context, cart model.Cart) (model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.SaveCart(c, cart)
}

func (f *fakeStore) FindCouponByCode(c context.Context, code string) (model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.FindCouponByCode(c, code)
}

func (f *fakeStore) CountRedemptions(c context.Context, couponID uuid.UUID, userID uuid.UUID) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.CountRedemptions(c, couponID, userID)
}

func (f *fakeStore) RecordRedemption(c context.Context, couponID uuid.UUID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.RecordRedemption(c, couponID, userID)
}

func (f *fakeStore) InsertCoupon(c context.Context, coupon model.Coupon) (model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTx{f}.InsertCoupon(c, coupon)
}

func (f *fakeStore) product(id uuid.UUID) model.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.products[id]
}

func (f *fakeStore) coupon(code string) model.Coupon {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.coupons[code]
}

func (f *fakeStore) redemptions(couponID uuid.UUID, userID uuid.UUID) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.redemptions[redemptionKey{couponID, userID}]
}

func (f *fakeStore) putProduct(p model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.products[p.ID] = p
}

func (f *fakeStore) putCoupon(cp model.Coupon) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.coupons[cp.Code] = cp
}

func (f *fakeStore) putCart(cart model.Cart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.carts[cart.Owner.String()] = cart.Clone()
}

// fakeTx runs queries without locking; the caller holds the store mutex.
type fakeTx struct {
	f *fakeStore
}

func (t fakeTx) FindProductById(c context.Context, id uuid.UUID) (model.Product, error) {
	p, ok := t.f.data.products[id]
	if !ok {
		return model.Product{}, fmt.Errorf("productId=%s %w", id, inErrors.ErrNotFound)
	}
	return p, nil
}

func (t fakeTx) DecrementStock(c context.Context, id uuid.UUID, quantity int32) error {
	p, ok := t.f.data.products[id]
	if !ok || p.Stock < quantity {
		return fmt.Errorf("productId=%s %w", id, inErrors.ErrOutOfStock)
	}
	p.Stock -= quantity
	t.f.data.products[id] = p
	return nil
}

func (t fakeTx) FindCartByOwner(c context.Context, owner model.Owner) (model.Cart, error) {
	cart, ok := t.f.data.carts[owner.String()]
	if !ok {
		return model.Cart{}, fmt.Errorf("owner=%s %w", owner, inErrors.ErrNotFound)
	}
	return cart.Clone(), nil
}

func (t fakeTx) SaveCart(c context.Context, cart model.Cart) (model.Cart, error) {
	t.f.saveCalls++
	if t.f.blockSave {
		<-c.Done()
		return model.Cart{}, c.Err()
	}
	if t.f.saveConflicts > 0 {
		t.f.saveConflicts--
		return model.Cart{}, fmt.Errorf("cartId=%s %w", cart.ID, inErrors.ErrConcurrency)
	}

	key := cart.Owner.String()
	existing, ok := t.f.data.carts[key]
	switch {
	case cart.IsNew() && ok:
		return model.Cart{}, fmt.Errorf("owner=%s %w", cart.Owner, inErrors.ErrConcurrency)
	case !cart.IsNew() && (!ok || existing.Version != cart.Version):
		return model.Cart{}, fmt.Errorf("cartId=%s %w", cart.ID, inErrors.ErrConcurrency)
	}

	saved := cart.Clone()
	saved.Version++
	t.f.data.carts[key] = saved.Clone()
	return saved, nil
}

func (t fakeTx) FindCouponByCode(c context.Context, code string) (model.Coupon, error) {
	cp, ok := t.f.data.coupons[code]
	if !ok {
		return model.Coupon{}, fmt.Errorf("couponCode=%s %w", code, inErrors.ErrNotFound)
	}
	return cp, nil
}

func (t fakeTx) CountRedemptions(c context.Context, couponID uuid.UUID, userID uuid.UUID) (int32, error) {
	return t.f.data.redemptions[redemptionKey{couponID, userID}], nil
}

func (t fakeTx) RecordRedemption(c context.Context, couponID uuid.UUID, userID uuid.UUID) error {
	for code, cp := range t.f.data.coupons {
		if cp.ID != couponID {
			continue
		}
		key := redemptionKey{couponID, userID}
		if cp.TimesUsed >= cp.UsageLimit.Total {
			return fmt.Errorf("couponId=%s %w", couponID, inErrors.ErrTotalLimitExceeded)
		}
		if t.f.data.redemptions[key] >= cp.UsageLimit.PerUser {
			return fmt.Errorf("couponId=%s userId=%s %w", couponID, userID, inErrors.ErrUserLimitExceeded)
		}
		cp.TimesUsed++
		t.f.data.coupons[code] = cp
		t.f.data.redemptions[key]++
		return nil
	}
	return fmt.Errorf("couponId=%s %w", couponID, inErrors.ErrNotFound)
}

func (t fakeTx) InsertCoupon(c context.Context, cp model.Coupon) (model.Coupon, error) {
	if _, ok := t.f.data.coupons[cp.Code]; ok {
		return model.Coupon{}, fmt.Errorf("couponCode=%s already exists %w", cp.Code, inErrors.ErrValidation)
	}
	t.f.data.coupons[cp.Code] = cp
	return cp, nil
}

// fakeCache mirrors the redis cache's version fence.
type fakeCache struct {
	mu          sync.Mutex
	carts       map[string]model.Cart
	committed   map[string]int64
	invalidated []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{carts: map[string]model.Cart{}, committed: map[string]int64{}}
}

func (f *fakeCache) Get(c context.Context, owner model.Owner) (model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[owner.String()]
	if !ok {
		return model.Cart{}, cache.ErrCacheMiss
	}
	return cart.Clone(), nil
}

func (f *fakeCache) Set(c context.Context, cart model.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := cart.Owner.String()
	if committed, ok := f.committed[key]; ok && cart.Version < committed {
		return nil
	}
	f.carts[key] = cart.Clone()
	return nil
}

func (f *fakeCache) Invalidate(c context.Context, owner model.Owner, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := owner.String()
	if version > f.committed[key] {
		f.committed[key] = version
	}
	delete(f.carts, key)
	f.invalidated = append(f.invalidated, version)
	return nil
}

// frozenReadStore answers cart reads outside a transaction with a cart
// captured earlier, as a read that started before a commit would.
type frozenReadStore struct {
	*fakeStore
	cart model.Cart
}

func (s frozenReadStore) FindCartByOwner(c context.Context, owner model.Owner) (model.Cart, error) {
	return s.cart.Clone(), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.CouponRedeemed
	err    error
}

func (f *fakePublisher) PublishCouponRedeemed(c context.Context, evt event.CouponRedeemed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

// staleReadStore hands out transactions whose usage reads predate every
// committed redemption, the way a READ COMMITTED snapshot can under contention.
type staleReadStore struct {
	*fakeStore
}

func (s staleReadStore) ExecTx(c context.Context, fn func(store.Querier) error) error {
	return s.fakeStore.ExecTx(c, func(q store.Querier) error {
		return fn(staleReadTx{q})
	})
}

type staleReadTx struct {
	store.Querier
}

func (t staleReadTx) FindCouponByCode(c context.Context, code string) (model.Coupon, error) {
	cp, err := t.Querier.FindCouponByCode(c, code)
	cp.TimesUsed = 0
	return cp, err
}

func (t staleReadTx) CountRedemptions(c context.Context, couponID uuid.UUID, userID uuid.UUID) (int32, error) {
	return 0, nil
}
