package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecrypt(t *testing.T) {
	key, err := ParseKey(testKey)
	require.NoError(t, err)
	c, err := NewCipher(key)
	require.NoError(t, err)

	sealed, err := c.Encrypt("felt rested after the nap")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "rested")

	again, err := c.Encrypt("felt rested after the nap")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "felt rested after the nap", plain)
}

func TestEmptyStaysEmpty(t *testing.T) {
	key, _ := ParseKey(testKey)
	c, err := NewCipher(key)
	require.NoError(t, err)

	s, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, s)
	s, err = c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestParseKeyRejectsBadInput(t *testing.T) {
	_, err := ParseKey("zz")
	assert.Error(t, err)
	_, err = ParseKey(strings.Repeat("ab", 16))
	assert.Error(t, err)
	_, err = NewCipher([]byte("short"))
	assert.Error(t, err)
}

func TestDecryptRejectsTamperedInput(t *testing.T) {
	key, _ := ParseKey(testKey)
	c, _ := NewCipher(key)
	_, err := c.Decrypt("AAAA")
	assert.Error(t, err)
}
