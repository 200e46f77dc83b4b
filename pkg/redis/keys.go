package redis

import "strings"

const keyNamespace = "exc"

// Keys builds namespaced Redis keys. Empty parts are skipped.
type Keys struct{}

func (Keys) key(parts ...string) string {
	b := strings.Builder{}
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

func (k Keys) IdempotencyKey(scope, id string) string { return k.key("idempotency", scope, id) }

func (k Keys) RateLimitKey(scope string) string { return k.key("rate_limit", scope) }

func (k Keys) AccessSessionKey(accessID string) string { return k.key("session", "access", accessID) }

// CartKey holds the cart document for an identity kind and key.
func (k Keys) CartKey(kind, id string) string { return k.key("cart", kind, id) }

func (k Keys) CartLockKey(kind, id string) string { return k.key("lock", "cart", kind, id) }

// LockKey names a process-wide lock such as the cron leader lock.
func (k Keys) LockKey(name string) string { return k.key("lock", name) }
