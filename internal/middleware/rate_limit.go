package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/limiter"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// RateLimit keys on the authenticated user, then the session id, then the remote address.
func RateLimit(l limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware RateLimit")
			defer span.End()

			key := r.RemoteAddr
			if sessionID := auth.SessionIDFromContext(c); sessionID != "" {
				key = sessionID
			}
			if claims, ok := auth.ClaimsFromContext(c); ok {
				key = claims.Subject
			}

			logger := zerolog.Ctx(c).With().
				Str(log.KeyTag, "middleware RateLimit").
				Str(log.KeyCacheKey, key).
				Logger()

			allowed, err := l.Allow(c, key)
			if err != nil {
				err = fmt.Errorf("failed checking rate limit with error=%w", err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}
			if !allowed {
				err = inErrors.ErrTooManyRequests
				otel.RecordError(err, span)
				logger.Info().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
