package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/log"
	commonOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/notification/pkg/event"
)

type Publisher interface {
	PublishCouponRedeemed(c context.Context, evt event.CouponRedeemed) error
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) RedisPublisher {
	return RedisPublisher{client: client}
}

func (p RedisPublisher) PublishCouponRedeemed(c context.Context, evt event.CouponRedeemed) error {
	c, span := otel.Tracer.Start(c, "RedisPublisher PublishCouponRedeemed")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisPublisher PublishCouponRedeemed").
		Str(log.KeyChannel, event.ChannelCouponRedeemed).
		Str(log.KeyCouponCode, evt.Code).
		Str(log.KeyProcess, "marshaling event").
		Logger()

	logger.Trace().Msg("marshaling event")
	payload, err := json.Marshal(evt)
	if err != nil {
		err = fmt.Errorf("failed marshaling event with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("marshaled event")

	logger = logger.With().Str(log.KeyProcess, "publishing event").Logger()
	logger.Info().Msg("publishing event")
	span.AddEvent("publishing coupon redeemed")
	if err = p.client.Publish(c, event.ChannelCouponRedeemed, payload).Err(); err != nil {
		err = fmt.Errorf("failed publishing event with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	span.AddEvent("published coupon redeemed")
	logger.Info().Msg("published event")

	return nil
}
