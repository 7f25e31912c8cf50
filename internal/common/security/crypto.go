package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Repository-access tokens are stored sealed with AES-256-GCM. The payload
// format is "iv:tag:ciphertext", each part base64, so records written by the
// previous deployment remain readable.

const gcmNonceSize = 12

var ErrInvalidSealedPayload = errors.New("invalid encrypted payload")

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, gcmNonceSize)
}

// EncryptSecret seals value with the given 32-byte key.
func EncryptSecret(key []byte, value string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, gcmNonceSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, iv, []byte(value), nil)
	// gcm.Seal appends the 16-byte tag to the ciphertext
	data := sealed[:len(sealed)-gcm.Overhead()]
	tag := sealed[len(sealed)-gcm.Overhead():]

	b64 := base64.StdEncoding
	return strings.Join([]string{
		b64.EncodeToString(iv),
		b64.EncodeToString(tag),
		b64.EncodeToString(data),
	}, ":"), nil
}

// DecryptSecret opens a payload produced by EncryptSecret.
func DecryptSecret(key []byte, payload string) (string, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return "", ErrInvalidSealedPayload
	}
	b64 := base64.StdEncoding
	iv, err := b64.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidSealedPayload
	}
	tag, err := b64.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidSealedPayload
	}
	data, err := b64.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidSealedPayload
	}
	if len(iv) != gcmNonceSize {
		return "", ErrInvalidSealedPayload
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, iv, append(data, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypting secret: %w", err)
	}
	return string(plain), nil
}
