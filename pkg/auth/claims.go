package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// AccessTokenPayload is the input to MintAccessToken.
type AccessTokenPayload struct {
	UserID string
	Role   enums.UserRole
	// Customer links a registered shopper to their customer record.
	Customer *string
	JTI      string
}

// AccessTokenClaims is the JWT body. The jti doubles as the refresh session key.
type AccessTokenClaims struct {
	UserID   string         `json:"user_id"`
	Role     enums.UserRole `json:"role"`
	Customer *string        `json:"customer,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing.
func (c AccessTokenClaims) Validate() error {
	switch {
	case c.UserID == "":
		return errors.New("user id is required")
	case c.Subject != c.UserID:
		return errors.New("subject does not match user id")
	case c.ID == "":
		return errors.New("token id is required")
	case !c.Role.IsValid():
		return fmt.Errorf("invalid user role %q", c.Role)
	}
	return nil
}
