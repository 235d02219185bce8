// Package vault encrypts, stores and redeems per-user delegated offline
// credentials. Plaintext refresh tokens never leave this package.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned when decryption fails due to invalid
	// ciphertext or wrong key material.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
	// ErrKeyVersionMismatch is returned when a ciphertext was written under a
	// superseded key version. The vault fails closed: rotated-away ciphertext
	// is unrecoverable and the owner must re-consent.
	ErrKeyVersionMismatch = errors.New("ciphertext encrypted under superseded key version")
)

// Keyring holds the active versioned symmetric key for refresh-token
// encryption. Exactly one version is active at a time; rotation replaces it
// wholesale and invalidates every ciphertext written under earlier versions.
type Keyring struct {
	gcm     cipher.AEAD
	version int
}

// NewKeyring creates a keyring from a key string and its version.
// The key can be a base64-encoded 32-byte key (openssl rand -base64 32) or
// any passphrase, which is hashed to 32 bytes with SHA-256.
func NewKeyring(keyInput string, version int) (*Keyring, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}
	if version < 1 {
		return nil, fmt.Errorf("key version must be >= 1, got %d", version)
	}

	var key []byte
	decoded, err := base64.StdEncoding.DecodeString(keyInput)
	if err == nil && len(decoded) == 32 {
		key = decoded
	} else {
		hash := sha256.Sum256([]byte(keyInput))
		key = hash[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Keyring{gcm: gcm, version: version}, nil
}

// Version returns the active key version.
func (k *Keyring) Version() int {
	return k.version
}

// Encrypt encrypts plaintext under the active key and returns
// base64(nonce || ciphertext || tag) plus the key version it was written under.
func (k *Keyring) Encrypt(plaintext string) (string, int, error) {
	nonce := make([]byte, k.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", 0, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := k.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), k.version, nil
}

// Decrypt decrypts a ciphertext written under the given key version.
// A version other than the active one fails closed with
// ErrKeyVersionMismatch before any key material is used.
func (k *Keyring) Decrypt(encrypted string, version int) (string, error) {
	if version != k.version {
		return "", fmt.Errorf("%w: ciphertext v%d, active v%d", ErrKeyVersionMismatch, version, k.version)
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}

	nonceSize := k.gcm.NonceSize()
	if len(data) < nonceSize+k.gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := k.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}

	return string(plaintext), nil
}
