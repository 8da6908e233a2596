// Package sealer encrypts individual text fields with a per-run key.
//
// The caller-supplied key is stretched with HKDF-SHA256 and used with
// XChaCha20-Poly1305. Sealed values are base64 strings carrying a version
// byte and the random nonce, so they can live in ordinary text columns.
package sealer

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	version = 1

	// MinKeyLen is the shortest key accepted.
	MinKeyLen = 16
)

var (
	// ErrInvalidKey is returned for keys that are too short and for values
	// that do not open with the given key.
	ErrInvalidKey = errors.New("invalid encryption key")
	// ErrMalformed is returned for values that are not sealed text.
	ErrMalformed = errors.New("malformed sealed value")
)

var hkdfInfo = []byte("docket field sealing v1")

// Sealer seals and opens field values. It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// New derives a sealer from key.
func New(key []byte) (*Sealer, error) {
	if len(key) < MinKeyLen {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrInvalidKey, MinKeyLen, len(key))
	}

	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, hkdfInfo), derived); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// ParseKey decodes a base64 (standard or URL alphabet) key.
func ParseKey(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrInvalidKey)
}

// Seal encrypts plaintext. The empty string stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+s.aead.Overhead())
	out = append(out, version)
	out = append(out, nonce...)
	out = s.aead.Seal(out, nonce, []byte(plaintext), []byte{version})
	return base64.RawStdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < 1+ns+s.aead.Overhead() || raw[0] != version {
		return "", ErrMalformed
	}

	plain, err := s.aead.Open(nil, raw[1:1+ns], raw[1+ns:], raw[:1])
	if err != nil {
		return "", ErrInvalidKey
	}
	return string(plain), nil
}
