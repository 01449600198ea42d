// Package cache keeps a read-through copy of carts in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/log"
	commonOtel "github.com/Alturino/storefront/internal/otel"
)

const (
	KeyCart        = "carts:%s"
	KeyCartVersion = "carts:%s:version"
)

var ErrCacheMiss = errors.New("cache miss")

// setIfCurrent stores the cart unless a newer version has been committed
// since the cart was read.
var setIfCurrent = redis.NewScript(`
local committed = tonumber(redis.call('GET', KEYS[2]) or '-1')
if tonumber(ARGV[1]) < committed then
    return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// invalidate raises the committed version and drops the cached cart.
var invalidate = redis.NewScript(`
local committed = tonumber(redis.call('GET', KEYS[2]) or '-1')
if tonumber(ARGV[1]) > committed then
    redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

// CartCache is a read-through copy of carts. Set never overwrites a cart with
// one older than the last version passed to Invalidate, so a read that races
// a commit cannot repopulate the cache with the pre-commit cart.
type CartCache interface {
	Get(c context.Context, owner model.Owner) (model.Cart, error)
	Set(c context.Context, cart model.Cart) error
	Invalidate(c context.Context, owner model.Owner, version int64) error
}

type RedisCartCache struct {
	client *redis.Client
	ttl    time.Duration
}

const DefaultTTL = 5 * time.Minute

func NewRedisCartCache(client *redis.Client, ttl time.Duration) RedisCartCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return RedisCartCache{client: client, ttl: ttl}
}

func Key(owner model.Owner) string {
	return fmt.Sprintf(KeyCart, owner.String())
}

func VersionKey(owner model.Owner) string {
	return fmt.Sprintf(KeyCartVersion, owner.String())
}

func (r RedisCartCache) Get(c context.Context, owner model.Owner) (model.Cart, error) {
	c, span := otel.Tracer.Start(c, "RedisCartCache Get")
	defer span.End()

	key := Key(owner)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisCartCache Get").
		Str(log.KeyCacheKey, key).
		Logger()

	payload, err := r.client.Get(c, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logger.Trace().Msg("cache miss")
			return model.Cart{}, ErrCacheMiss
		}
		err = fmt.Errorf("failed getting cart from cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Cart{}, err
	}

	cart := model.Cart{}
	if err = json.Unmarshal(payload, &cart); err != nil {
		err = fmt.Errorf("failed unmarshaling cart from cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Cart{}, err
	}
	logger.Trace().Msg("cache hit")

	return cart, nil
}

func (r RedisCartCache) Set(c context.Context, cart model.Cart) error {
	c, span := otel.Tracer.Start(c, "RedisCartCache Set")
	defer span.End()

	key := Key(cart.Owner)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisCartCache Set").
		Str(log.KeyCacheKey, key).
		Logger()

	payload, err := json.Marshal(cart)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	stored, err := setIfCurrent.Run(
		c,
		r.client,
		[]string{key, VersionKey(cart.Owner)},
		cart.Version,
		payload,
		r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		err = fmt.Errorf("failed inserting cart to cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if stored == 0 {
		logger.Trace().Int64(log.KeyCartVersion, cart.Version).Msg("skipped caching superseded cart")
		return nil
	}
	logger.Trace().Msg("inserted cart to cache")

	return nil
}

func (r RedisCartCache) Invalidate(c context.Context, owner model.Owner, version int64) error {
	c, span := otel.Tracer.Start(c, "RedisCartCache Invalidate")
	defer span.End()

	key := Key(owner)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisCartCache Invalidate").
		Str(log.KeyCacheKey, key).
		Int64(log.KeyCartVersion, version).
		Logger()

	err := invalidate.Run(c, r.client, []string{key, VersionKey(owner)}, version, r.ttl.Milliseconds()).Err()
	if err != nil {
		err = fmt.Errorf("failed deleting cart from cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("deleted cart from cache")

	return nil
}
