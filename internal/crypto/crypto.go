// Package crypto seals the bot token before it is written to durable storage.
//
// Sealed values carry a "enc:v1:" prefix followed by base64-encoded AES-256-GCM
// ciphertext. The key is derived from a user passphrase with PBKDF2-SHA256.
// Values without the prefix are treated as plaintext, so configs written before
// encryption was enabled keep loading. Without a key, plaintext that itself
// starts with "enc:" is escaped with a "enc:raw:" prefix so it loads back intact.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Prefix marks a sealed value
	Prefix = "enc:v1:"
	// RawPrefix marks an unsealed value that would otherwise look sealed
	RawPrefix = "enc:raw:"

	reserved = "enc:"

	iterations = 100000
	keySize    = 32 // AES-256
)

// ErrWrongKey is returned when a sealed value cannot be opened with the configured key
var ErrWrongKey = errors.New("sealed value does not match encryption key")

// Encryptor seals and opens secrets with a passphrase-derived key.
// A nil *Encryptor passes values through unchanged.
type Encryptor struct {
	key []byte
}

// NewEncryptor derives a key from passphrase. An empty passphrase yields nil.
func NewEncryptor(passphrase string) *Encryptor {
	if passphrase == "" {
		return nil
	}

	// The salt is derived from the passphrase; a config file has no room for a separate one
	salt := sha256.Sum256([]byte(passphrase + "tg-messenger-salt"))
	key := pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)

	return &Encryptor{key: key}
}

// IsSealed reports whether value was produced by Seal
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Seal encrypts plaintext. Empty input is returned as-is. A nil Encryptor
// returns plaintext unchanged unless it starts with "enc:", which is escaped.
func (e *Encryptor) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}
	if e == nil {
		if strings.HasPrefix(plaintext, reserved) {
			return RawPrefix + plaintext, nil
		}
		return plaintext, nil
	}

	gcm, err := e.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed value. Escaped input is unwrapped and other
// unsealed input is returned unchanged.
func (e *Encryptor) Open(value string) (string, error) {
	if strings.HasPrefix(value, RawPrefix) {
		return strings.TrimPrefix(value, RawPrefix), nil
	}
	if !IsSealed(value) {
		return value, nil
	}
	if e == nil {
		return "", fmt.Errorf("opening sealed value: no encryption key configured")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("decoding sealed value: %w", err)
	}

	gcm, err := e.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("sealed value too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrWrongKey
	}

	return string(plaintext), nil
}

func (e *Encryptor) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
