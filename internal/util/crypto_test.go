package util

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTxHash(t *testing.T) {
	t.Run("prefixes 64 hex chars with 0x", func(t *testing.T) {
		hash, err := GenerateTxHash(rand.Reader)
		require.NoError(t, err)
		assert.Len(t, hash, 66)
		assert.True(t, strings.HasPrefix(hash, "0x"))
		for _, c := range hash[2:] {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
		}
	})

	t.Run("is deterministic for a fixed source", func(t *testing.T) {
		src := bytes.Repeat([]byte{0xab}, 32)
		hash, err := GenerateTxHash(bytes.NewReader(src))
		require.NoError(t, err)
		assert.Equal(t, "0x"+strings.Repeat("ab", 32), hash)
	})

	t.Run("fails on short source", func(t *testing.T) {
		_, err := GenerateTxHash(bytes.NewReader([]byte{1, 2, 3}))
		assert.Error(t, err)
	})
}

func TestHashToken(t *testing.T) {
	t.Run("same input produces same hash", func(t *testing.T) {
		assert.Equal(t, HashToken("test-token"), HashToken("test-token"))
	})

	t.Run("different input produces different hash", func(t *testing.T) {
		assert.NotEqual(t, HashToken("token-1"), HashToken("token-2"))
	})
}

func TestConstantTimeEqual(t *testing.T) {
	t.Run("returns true for equal strings", func(t *testing.T) {
		assert.True(t, ConstantTimeEqual("abc", "abc"))
	})

	t.Run("returns false for different strings", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("abc", "def"))
	})

	t.Run("returns false for different lengths", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("abc", "abcd"))
	})
}
