package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/security"
)

var cheap = config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func TestHasherRoundTrip(t *testing.T) {
	h, err := security.NewHasher(cheap)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	encoded, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	if ok, err := security.VerifyPassword("correct horse", encoded); err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if ok, err := security.VerifyPassword("battery staple", encoded); err != nil || ok {
		t.Fatalf("expected mismatch, got %v %v", ok, err)
	}
	if h.NeedsRehash(encoded) {
		t.Fatalf("fresh hash should not need rehash")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := security.HashPassword("", cheap); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestNeedsRehashOnParamChange(t *testing.T) {
	old, err := security.HashPassword("pw", cheap)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	stronger := cheap
	stronger.ArgonTime = 2
	h, err := security.NewHasher(stronger)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	if !h.NeedsRehash(old) || !h.NeedsRehash("garbage") {
		t.Fatal("expected rehash for old params and malformed input")
	}
}

func TestParamsFromConfigClamps(t *testing.T) {
	p := security.ParamsFromConfig(config.PasswordConfig{ArgonTime: 99, ArgonParallelism: 1000})
	if p.Time != 10 || p.Parallelism != 255 || p.Memory != 8 || p.SaltLen != 8 || p.KeyLen != 16 {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$c2FsdHNhbHQ",
		"$argon2id$v=19$m=8,t=1,p=1$!!$a2V5",
	} {
		if _, err := security.VerifyPassword("pw", encoded); err != security.ErrInvalidHash {
			t.Fatalf("%q: expected ErrInvalidHash, got %v", encoded, err)
		}
	}
}
