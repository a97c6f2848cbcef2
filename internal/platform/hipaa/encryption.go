// Package hipaa protects PHI at rest. Transcripts are sealed with
// AES-256-GCM before they are written and opened again on read.
package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks a stored value as ciphertext. Values without it are
// plaintext written before encryption was enabled.
const sealedPrefix = "enc:v1:"

// ErrKeyMismatch is returned when a sealed value cannot be opened, either
// because of a different key or because the value was bound to another
// record.
var ErrKeyMismatch = errors.New("phi decrypt: authentication failed")

// PHIEncryptor seals and opens text fields with AES-256-GCM.
type PHIEncryptor struct {
	aead cipher.AEAD
}

// NewPHIEncryptor creates a PHIEncryptor from a 32-byte AES-256 key.
func NewPHIEncryptor(key []byte) (*PHIEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("phi encryptor: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create GCM: %w", err)
	}
	return &PHIEncryptor{aead: aead}, nil
}

// ParseKey decodes a key given as 64 hex characters or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == 64 {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("phi key: not hex or base64")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("phi key: must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Seal encrypts plaintext and binds it to aad, typically the owning record
// id. The result is safe to store in a text column.
func (e *PHIEncryptor) Seal(plaintext string, aad []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi encrypt: generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), aad)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Unsealed values are returned unchanged.
func (e *PHIEncryptor) Open(stored string, aad []byte) (string, error) {
	if !IsSealed(stored) {
		return stored, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("phi decrypt: base64 decode: %w", err)
	}
	n := e.aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("phi decrypt: ciphertext too short")
	}
	plaintext, err := e.aead.Open(nil, data[:n], data[n:], aad)
	if err != nil {
		return "", ErrKeyMismatch
	}
	return string(plaintext), nil
}

// IsSealed reports whether a stored value was produced by Seal.
func IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}
