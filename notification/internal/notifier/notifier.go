// Package notifier delivers shopper notifications over SMTP.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	commonOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/notification/internal/otel"
)

type Notifier interface {
	Send(c context.Context, address string, subject string, body string) error
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

type SmtpNotifier struct {
	cfg  config.Smtp
	send sendFunc
}

func NewSmtpNotifier(cfg config.Smtp) *SmtpNotifier {
	return &SmtpNotifier{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Send gives up after the configured smtp timeout. Every failure wraps errors.ErrDelivery.
func (n *SmtpNotifier) Send(c context.Context, address string, subject string, body string) (err error) {
	c, span := otel.Tracer.Start(c, "SmtpNotifier Send")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SmtpNotifier Send").
		Str(log.KeyNotifyAddress, address).
		Str(log.KeyProcess, "validating address").
		Logger()

	defer func() {
		metrics.Notifications.WithLabelValues(metrics.Result(err)).Inc()
	}()

	if err = validate.New().VarCtx(c, address, "required,email"); err != nil {
		err = fmt.Errorf("failed validating address with error=%w", fmt.Errorf("%w: %w", inErrors.ErrDelivery, inErrors.ErrValidation))
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = []string{address}
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		c, cancel = context.WithTimeout(c, n.cfg.Timeout)
		defer cancel()
	}

	logger = logger.With().Str(log.KeyProcess, "sending email").Logger()
	logger.Info().Msg("sending email")
	done := make(chan error, 1)
	go func() {
		done <- n.send(e, fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port), auth)
	}()

	select {
	case err = <-done:
		if err != nil {
			err = fmt.Errorf("failed sending email with error=%w", fmt.Errorf("%w: %w", inErrors.ErrDelivery, err))
			commonOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	case <-c.Done():
		cause := c.Err()
		if errors.Is(cause, context.DeadlineExceeded) {
			cause = inErrors.ErrTimeout
		}
		err = fmt.Errorf("failed sending email with error=%w", fmt.Errorf("%w: %w", inErrors.ErrDelivery, cause))
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("sent email")

	return nil
}
