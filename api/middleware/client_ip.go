package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP records the caller address for cart identity and rate limiting.
// Forwarding headers are read only when the socket peer is one of trusted.
func ClientIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), resolveClientIP(r, trusted))))
		})
	}
}

// resolveClientIP walks X-Forwarded-For from the right and returns the first
// hop outside trusted. A chain made only of trusted hops yields its left-most
// entry. X-Real-IP is consulted when no X-Forwarded-For is present.
func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := peerAddr(r)
	if !ok {
		return remoteIP(r)
	}
	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	hops := forwardedHops(r)
	if len(hops) > 0 {
		client := peer
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(hops[i])
			if err != nil {
				break
			}
			client = hop.Unmap()
			if !isTrusted(client, trusted) {
				break
			}
		}
		return client.String()
	}

	if real, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return real.Unmap().String()
	}
	return peer.String()
}

func forwardedHops(r *http.Request) []string {
	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, part := range strings.Split(header, ",") {
			if hop := strings.TrimSpace(part); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(r *http.Request) (netip.Addr, bool) {
	if r == nil {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(remoteIP(r))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// remoteIP is the socket peer without its port.
func remoteIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
