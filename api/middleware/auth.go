package middleware

import (
	"net/http"
	"strings"

	"github.com/bazaarly/checkout-backend/api/responses"
	pkgauth "github.com/bazaarly/checkout-backend/pkg/auth"
	"github.com/bazaarly/checkout-backend/pkg/config"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// shopper's identity. Unauthorized responses carry the login redirect so
// the storefront can bounce the shopper to sign-in and bring them back.
func Auth(cfg config.JWTConfig, loginRedirect string, logg *logger.Logger) func(http.Handler) http.Handler {
	unauthorized := func(w http.ResponseWriter, r *http.Request, err *pkgerrors.Error) {
		if loginRedirect != "" {
			err = err.WithDetails(map[string]string{"redirect": loginRedirect})
		}
		responses.WriteError(r.Context(), logg, w, err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				unauthorized(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				unauthorized(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				unauthorized(w, r, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithIdentity(ctx, claims.Email, claims.Name)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
