package password

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count.
	Iterations = 1000

	// KeyLength is the derived key length in bytes. The hex digest is twice as long.
	KeyLength = 64
)

// ErrMissingSalt is returned when the hasher has no usable salt.
var ErrMissingSalt = errors.New("password salt is not configured")

// Hasher derives deterministic PBKDF2-SHA512 digests with a fixed salt.
type Hasher struct {
	salt []byte
}

// NewHasher creates a hasher for the given salt.
// A blank salt is rejected.
func NewHasher(salt string) (*Hasher, error) {
	if strings.TrimSpace(salt) == "" {
		return nil, ErrMissingSalt
	}
	return &Hasher{salt: []byte(salt)}, nil
}

// Hash returns the hex-encoded PBKDF2 digest of plaintext.
// The same plaintext always yields the same digest for a given salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if h == nil || len(h.salt) == 0 {
		return "", ErrMissingSalt
	}
	key := pbkdf2.Key([]byte(plaintext), h.salt, Iterations, KeyLength, sha512.New)
	return hex.EncodeToString(key), nil
}
