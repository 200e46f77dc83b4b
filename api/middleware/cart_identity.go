package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/excommerce-backend/internal/identity"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

// CartIdentity resolves the cart key for the caller. It must run after
// ClientIP and OptionalAuth.
func CartIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := identity.Resolve(ClientIPFromContext(ctx), UserIDFromContext(ctx))
			ctx = context.WithValue(ctx, ctxCartIdentity, id)
			if logg != nil {
				ctx = logg.WithCartID(ctx, string(id.Kind), id.Key)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
