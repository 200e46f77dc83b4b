package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// ProxyConfig lists the reverse proxies whose forwarding headers are believed.
// Requests from any other peer are identified by their socket address.
type ProxyConfig struct {
	Trusted CIDRList `envconfig:"EXCOMMERCE_TRUSTED_PROXIES"`
}

// CIDRList decodes a comma separated list of prefixes. A bare address is
// read as a single host prefix.
type CIDRList []netip.Prefix

func (l *CIDRList) Decode(value string) error {
	var out CIDRList
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return fmt.Errorf("trusted proxy %q: %w", part, err)
			}
			out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(part)
		if err != nil {
			return fmt.Errorf("trusted proxy %q: %w", part, err)
		}
		out = append(out, prefix.Masked())
	}
	*l = out
	return nil
}

// Contains reports whether addr falls inside any listed prefix.
func (l CIDRList) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range l {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
