package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPGPSymmetricRoundTrip(t *testing.T) {
	encrypted, err := PGPSymmetricEncrypt("1234 5678 9012 3456", []byte("secret"))
	require.NoError(t, err)
	require.NotContains(t, encrypted, "1234")

	decrypted, err := PGPSymmetricDecrypt(encrypted, []byte("secret"))
	require.NoError(t, err)
	require.Equal(t, "1234 5678 9012 3456", decrypted)
}

func TestPGPSymmetricEncryptIsRandomized(t *testing.T) {
	first, err := PGPSymmetricEncrypt("1234 5678 9012 3456", []byte("secret"))
	require.NoError(t, err)
	second, err := PGPSymmetricEncrypt("1234 5678 9012 3456", []byte("secret"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestPGPSymmetricDecryptWrongPassphrase(t *testing.T) {
	encrypted, err := PGPSymmetricEncrypt("1234 5678 9012 3456", []byte("secret"))
	require.NoError(t, err)

	_, err = PGPSymmetricDecrypt(encrypted, []byte("other"))
	require.Error(t, err)
}

func TestPGPSymmetricEncryptEmptyPassphrase(t *testing.T) {
	_, err := PGPSymmetricEncrypt("data", nil)
	require.Error(t, err)
}

func TestCardCipherFingerprint(t *testing.T) {
	cipher, err := NewCardCipher("secret", "hmac-key")
	require.NoError(t, err)

	fp := cipher.Fingerprint("1234 5678 9012 3456")
	require.Equal(t, fp, cipher.Fingerprint("1234567890123456"))
	require.True(t, cipher.Verify("1234 5678 9012 3456", fp))
	require.False(t, cipher.Verify("1234 5678 9012 3457", fp))

	other, err := NewCardCipher("secret", "another-key")
	require.NoError(t, err)
	require.False(t, other.Verify("1234 5678 9012 3456", fp))
}

func TestNewCardCipherRequiresKeys(t *testing.T) {
	_, err := NewCardCipher("", "hmac")
	require.Error(t, err)
	_, err = NewCardCipher("secret", "")
	require.Error(t, err)
}
