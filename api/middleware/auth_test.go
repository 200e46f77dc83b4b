package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/excommerce-backend/pkg/auth"
	"github.com/angelmondragon/excommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type captured struct {
	user     string
	role     string
	customer string
	called   bool
}

func capture(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.user = UserIDFromContext(r.Context())
		c.role = RoleFromContext(r.Context())
		c.customer = CustomerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	var c captured
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(capture(&c))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if c.called {
		t.Fatal("handler should not run")
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var c captured
	handler := OptionalAuth(testJWT, stubSessionVerifier{ok: true}, nil)(capture(&c))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if c.user != "" || c.role != "" {
		t.Fatalf("expected anonymous context, got user=%q role=%q", c.user, c.role)
	}
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	var c captured
	handler := OptionalAuth(testJWT, stubSessionVerifier{ok: true}, nil)(capture(&c))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsClaims(t *testing.T) {
	customer := "CUST-00007"
	token := mintTestToken(t, "user-1", enums.UserRoleCustomer, &customer)

	var c captured
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(capture(&c))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if c.user != "user-1" || c.role != string(enums.UserRoleCustomer) || c.customer != customer {
		t.Fatalf("unexpected context %+v", c)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, "user-1", enums.UserRoleStaff, nil)

	cases := []struct {
		name     string
		verifier stubSessionVerifier
		want     int
	}{
		{name: "revoked", verifier: stubSessionVerifier{ok: false}, want: http.StatusUnauthorized},
		{name: "redis down", verifier: stubSessionVerifier{err: errors.New("down")}, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c captured
			handler := OptionalAuth(testJWT, tc.verifier, nil)(capture(&c))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	var c captured
	handler := RequireRole(string(enums.UserRoleStaff), nil)(capture(&c))

	cases := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{name: "anonymous", ctx: context.Background(), want: http.StatusUnauthorized},
		{name: "customer", ctx: WithRole(WithUserID(context.Background(), "u1"), string(enums.UserRoleCustomer)), want: http.StatusForbidden},
		{name: "staff", ctx: WithRole(WithUserID(context.Background(), "u2"), string(enums.UserRoleStaff)), want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(tc.ctx)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func mintTestToken(t *testing.T, userID string, role enums.UserRole, customer *string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:   userID,
		Role:     role,
		Customer: customer,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
