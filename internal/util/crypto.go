package util

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
)

const tokenBytes = 32

// GenerateTxHash returns a 0x-prefixed 32-byte hex string read from src.
func GenerateTxHash(src io.Reader) (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := io.ReadFull(src, bytes); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(bytes), nil
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
