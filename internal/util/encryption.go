package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// CredentialCipher seals provider credentials with AES-256-GCM. A nil
// *CredentialCipher stores values in plaintext.
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher returns nil when hexKey is empty.
func NewCredentialCipher(hexKey string) (*CredentialCipher, error) {
	if hexKey == "" {
		return nil, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &CredentialCipher{aead: aead}, nil
}

// Seal encrypts plaintext into base64(nonce || ciphertext).
func (c *CredentialCipher) Seal(plaintext string) (string, error) {
	if c == nil {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *CredentialCipher) Open(encoded string) (string, error) {
	if c == nil {
		return encoded, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}

	return string(plaintext), nil
}

// SealPtr and OpenPtr pass nil and empty values through unchanged.
func (c *CredentialCipher) SealPtr(value *string) (*string, error) {
	if value == nil || *value == "" {
		return value, nil
	}
	sealed, err := c.Seal(*value)
	if err != nil {
		return nil, err
	}
	return &sealed, nil
}

func (c *CredentialCipher) OpenPtr(value *string) (*string, error) {
	if value == nil || *value == "" {
		return value, nil
	}
	opened, err := c.Open(*value)
	if err != nil {
		return nil, err
	}
	return &opened, nil
}
