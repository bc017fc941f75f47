// Package crypto provides the process-wide symmetric encryption used to
// store upstream-provider credential blobs at rest, plus a constant-time
// comparison helper for bearer/API-key checks.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrDecryptFailed is returned when ciphertext cannot be authenticated
// against the configured key — a corrupted or tampered credentials blob.
var ErrDecryptFailed = errors.New("crypto: decryption failed")

// SecretBox encrypts and decrypts credential JSON with a single process-wide
// key, derived once via HKDF-SHA256 from operator-supplied key material so
// that short or low-entropy configuration secrets still yield a full-length
// AEAD key.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives a 256-bit AEAD key from keyMaterial (typically the
// operator's ENCRYPTION_KEY configuration value) and returns a ready-to-use
// SecretBox. keyMaterial must be non-empty.
func NewSecretBox(keyMaterial string) (*SecretBox, error) {
	if keyMaterial == "" {
		return nil, errors.New("crypto: empty key material")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(keyMaterial), nil, []byte("gateway-credential-store"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("crypto: derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init aead: %w", err)
	}
	return &SecretBox{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce and returns a
// base64url-encoded "nonce||ciphertext" string. Encrypting the same
// plaintext twice yields different ciphertexts.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	if b == nil || b.aead == nil {
		return "", errors.New("crypto: secret box not initialized")
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. A non-nil error means the ciphertext is
// corrupted or was encrypted under a different key — callers must treat
// this as "credentials corrupted, ask the user to re-import" and must
// never auto-delete the underlying record.
func (b *SecretBox) Decrypt(ciphertext string) (string, error) {
	if b == nil || b.aead == nil {
		return "", errors.New("crypto: secret box not initialized")
	}
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptFailed
	}
	nonceSize := b.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrDecryptFailed
	}
	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// ConstantTimeEquals compares two secrets (API keys, bearer tokens) without
// leaking timing information about where they first differ.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		// Still run a constant-time compare against a zero buffer of
		// matching length so the length mismatch itself isn't a
		// meaningfully faster code path for short guesses.
		subtle.ConstantTimeCompare([]byte(a), []byte(a))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
