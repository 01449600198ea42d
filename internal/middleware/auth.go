package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

// Auth verifies a bearer token when one is sent. Requests without a token
// continue as guests identified by the session header.
func Auth(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			if sessionID := r.Header.Get(inHttp.HeaderSessionID); sessionID != "" {
				c = auth.AttachSessionID(c, sessionID)
			}

			authorization := r.Header.Get(inHttp.HeaderAuthorization)
			if authorization == "" {
				logger.Trace().Msg("no authorization header, continuing as guest")
				next.ServeHTTP(w, r.WithContext(c))
				return
			}

			token, found := strings.CutPrefix(authorization, "Bearer ")
			if !found {
				token, found = strings.CutPrefix(authorization, "bearer ")
			}
			if !found || token == "" {
				err := fmt.Errorf("failed reading bearer token with error=%w", inErrors.ErrEmptyAuth)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}

			claims, err := auth.VerifyToken(c, secretKey, token)
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}
			logger = logger.With().Str(log.KeyUserID, claims.Subject).Logger()
			logger.Trace().Msg("verified token")

			c = logger.WithContext(auth.AttachClaims(c, claims))
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
			inHttp.WriteErrorResponse(r.Context(), w, inErrors.ErrEmptyAuth)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.ClaimsFromContext(r.Context())
		if claims.Role != auth.RoleAdmin {
			inHttp.WriteErrorResponse(r.Context(), w, inErrors.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
