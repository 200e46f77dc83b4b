package middleware

import (
	"context"

	"github.com/angelmondragon/excommerce-backend/internal/identity"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxCustomer     contextKey = "customer"
	ctxClientIP     contextKey = "client_ip"
	ctxCartIdentity contextKey = "cart_identity"
	ctxRequestID    contextKey = "request_id"
)

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// CustomerFromContext returns the customer record linked to the caller's login.
func CustomerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomer).(string); ok {
		return v
	}
	return ""
}

func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxClientIP).(string); ok {
		return v
	}
	return ""
}

// CartIdentityFromContext returns the identity attached by CartIdentity. When
// the middleware did not run, the identity is derived from what the context has.
func CartIdentityFromContext(ctx context.Context) identity.Identity {
	if ctx != nil {
		if v, ok := ctx.Value(ctxCartIdentity).(identity.Identity); ok {
			return v
		}
	}
	return identity.Resolve(ClientIPFromContext(ctx), UserIDFromContext(ctx))
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the caller role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithClientIP injects the client address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClientIP, ip)
}
