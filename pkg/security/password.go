package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/excommerce-backend/pkg/config"
)

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// ArgonParams are embedded in every encoded hash so old hashes keep verifying
// after the configuration changes.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps cfg into a usable parameter set. A zero config yields
// the cheapest allowed parameters.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      clamp(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        clamp(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     clamp(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      clamp(cfg.ArgonKeyLen, 16, 64),
	}
}

// Hasher produces Argon2id hashes with fixed parameters. It keeps a decoy
// hash so unknown accounts cost the same to reject as wrong passwords.
type Hasher struct {
	params ArgonParams
	decoy  string
}

func NewHasher(cfg config.PasswordConfig) (*Hasher, error) {
	h := &Hasher{params: ParamsFromConfig(cfg)}
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate decoy secret: %w", err)
	}
	decoy, err := h.Hash(base64.RawURLEncoding.EncodeToString(secret))
	if err != nil {
		return nil, err
	}
	h.decoy = decoy
	return h, nil
}

// Hash returns the PHC formatted Argon2id hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := derive(password, salt, h.params)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Decoy runs a verification that always fails.
func (h *Hasher) Decoy(password string) {
	_, _ = VerifyPassword(password, h.decoy)
}

// NeedsRehash reports whether encoded was produced with different parameters.
func (h *Hasher) NeedsRehash(encoded string) bool {
	params, _, _, err := decodeHash(encoded)
	return err != nil || params != h.params
}

// HashPassword is a one-off Hash without the decoy setup.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	return (&Hasher{params: ParamsFromConfig(cfg)}).Hash(password)
}

// VerifyPassword compares password against encoded in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, derive(password, salt, params)) == 1, nil
}

func derive(password string, salt []byte, p ArgonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

func decodeHash(encoded string) (ArgonParams, []byte, []byte, error) {
	var (
		version   int
		params    ArgonParams
		salt, key string
	)
	if strings.Count(encoded, "$") != 5 || !strings.HasPrefix(encoded, "$") {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	fields := strings.ReplaceAll(encoded[1:], "$", " ")
	n, err := fmt.Sscanf(fields, "argon2id v=%d m=%d,t=%d,p=%d %s %s",
		&version, &params.Memory, &params.Time, &params.Parallelism, &salt, &key)
	if err != nil || n != 6 || version != argon2.Version {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil || len(rawSalt) == 0 {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	rawKey, err := base64.RawStdEncoding.DecodeString(key)
	if err != nil || len(rawKey) == 0 {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	params.SaltLen = uint32(len(rawSalt))
	params.KeyLen = uint32(len(rawKey))
	return params, rawSalt, rawKey, nil
}

func clamp(value, min, max int) uint32 {
	switch {
	case value < min:
		return uint32(min)
	case value > max:
		return uint32(max)
	}
	return uint32(value)
}
