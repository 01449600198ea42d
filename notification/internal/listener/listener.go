// Package listener turns coupon events published by the cart service into emails.
package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	commonOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/notification/internal/notifier"
	"github.com/Alturino/storefront/notification/internal/otel"
	"github.com/Alturino/storefront/notification/pkg/event"
)

const SubjectCouponRedeemed = "Your coupon %s was applied"

type Listener struct {
	client   *redis.Client
	notifier notifier.Notifier
}

func NewListener(client *redis.Client, notifier notifier.Notifier) Listener {
	return Listener{client: client, notifier: notifier}
}

// Listen blocks until c is cancelled. A message that cannot be delivered is
// logged and skipped so one bad event never stops the subscription.
func (l Listener) Listen(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Listener Listen").
		Str(log.KeyChannel, event.ChannelCouponRedeemed).
		Str(log.KeyProcess, "subscribing").
		Logger()

	logger.Info().Msg("subscribing")
	subscriber := l.client.Subscribe(c, event.ChannelCouponRedeemed)
	defer subscriber.Close()
	if _, err := subscriber.Receive(c); err != nil {
		err = fmt.Errorf("failed subscribing to channel=%s with error=%w", event.ChannelCouponRedeemed, err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("subscribed")

	logger = logger.With().Str(log.KeyProcess, "receiving events").Logger()
	messages := subscriber.Channel()
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("stopped receiving events")
			return nil
		case msg, ok := <-messages:
			if !ok {
				logger.Info().Msg("subscription closed")
				return nil
			}
			_ = l.Handle(logger.WithContext(c), msg.Payload)
		}
	}
}

func (l Listener) Handle(c context.Context, payload string) error {
	c, span := otel.Tracer.Start(c, "Listener Handle")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Listener Handle").
		Str(log.KeyProcess, "unmarshaling event").
		Logger()

	evt := event.CouponRedeemed{}
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		err = fmt.Errorf("failed unmarshaling event with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().
		Str(log.KeyCouponCode, evt.Code).
		Str(log.KeyCartID, evt.CartID.String()).
		Str(log.KeyUserID, evt.UserID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "sending notification").Logger()
	logger.Info().Msg("sending notification")
	c = logger.WithContext(c)
	err := l.notifier.Send(c, evt.Email, fmt.Sprintf(SubjectCouponRedeemed, evt.Code), Body(evt))
	if err != nil {
		err = fmt.Errorf("failed sending notification with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("sent notification")

	return nil
}

func Body(evt event.CouponRedeemed) string {
	return fmt.Sprintf(
		"Coupon %s was applied to your cart on %s. You saved %s %s.",
		evt.Code,
		evt.RedeemedAt.Format("2006-01-02 15:04 MST"),
		evt.Amount.StringFixed(2),
		evt.Currency,
	)
}
