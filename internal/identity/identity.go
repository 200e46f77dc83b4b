package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Kind distinguishes anonymous carts from carts owned by a logged-in user.
type Kind string

const (
	KindGuest   Kind = "guest"
	KindSession Kind = "session"
)

const (
	guestPrefix  = "guest_cart_"
	guestHashLen = 12
	unknownIP    = "unknown"
)

// Identity is the opaque key a cart is stored under.
type Identity struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

// IsGuest reports whether the identity belongs to an anonymous visitor.
func (i Identity) IsGuest() bool {
	return i.Kind == KindGuest
}

// Resolve maps the caller to a cart identity. A non-empty userID wins; otherwise
// the client IP is hashed into a guest key. Visitors sharing an IP share a cart.
func Resolve(ip, userID string) Identity {
	if userID = strings.TrimSpace(userID); userID != "" {
		return Identity{Kind: KindSession, Key: userID}
	}
	return Identity{Kind: KindGuest, Key: GuestCartID(ip)}
}

// GuestCartID derives the stable guest cart key for an IP address.
func GuestCartID(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = unknownIP
	}
	sum := md5.Sum([]byte(ip))
	return guestPrefix + hex.EncodeToString(sum[:])[:guestHashLen]
}
