package controllers

import (
	"net/http"

	"github.com/angelmondragon/excommerce-backend/api/middleware"
	"github.com/angelmondragon/excommerce-backend/api/responses"
	"github.com/angelmondragon/excommerce-backend/internal/identity"
)

type sessionInfo struct {
	Authenticated    bool          `json:"authenticated"`
	UserID           *string       `json:"user_id"`
	Role             *string       `json:"role"`
	Customer         *string       `json:"customer"`
	CartIdentityKind identity.Kind `json:"cart_identity_kind"`
}

// SessionInfo reports who the caller is and which cart they write to.
func SessionInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		info := sessionInfo{CartIdentityKind: middleware.CartIdentityFromContext(ctx).Kind}
		if userID := middleware.UserIDFromContext(ctx); userID != "" {
			info.Authenticated = true
			info.UserID = &userID
			if role := middleware.RoleFromContext(ctx); role != "" {
				info.Role = &role
			}
			if customer := middleware.CustomerFromContext(ctx); customer != "" {
				info.Customer = &customer
			}
		}
		responses.WriteSuccess(w, info)
	}
}
