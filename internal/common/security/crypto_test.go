package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := EncryptSecret(testKey(), "ghp_sometoken")
	require.NoError(t, err)
	assert.Len(t, strings.Split(sealed, ":"), 3)

	plain, err := DecryptSecret(testKey(), sealed)
	require.NoError(t, err)
	assert.Equal(t, "ghp_sometoken", plain)
}

func TestDecryptRejectsMalformedPayload(t *testing.T) {
	for _, payload := range []string{"", "abc", "a:b", "not-base64:also:nope"} {
		_, err := DecryptSecret(testKey(), payload)
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	sealed, err := EncryptSecret(testKey(), "secret")
	require.NoError(t, err)

	other := []byte("fedcba9876543210fedcba9876543210")
	_, err = DecryptSecret(other, sealed)
	assert.Error(t, err)
}

func TestShortKeyRejected(t *testing.T) {
	_, err := EncryptSecret([]byte("short"), "secret")
	assert.Error(t, err)
}
