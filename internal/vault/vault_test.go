package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	blob, err := Encrypt([]byte(`{"claim":"value"}`), "correct horse", LightScryptParams)
	require.NoError(t, err)

	plain, err := Decrypt(blob, "correct horse", LightScryptParams)
	require.NoError(t, err)
	assert.Equal(t, `{"claim":"value"}`, string(plain))
}

func TestEncryptUsesFreshSalt(t *testing.T) {
	a, err := Encrypt([]byte("same"), "pass", LightScryptParams)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), "pass", LightScryptParams)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptFailures(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), "pass", LightScryptParams)
	require.NoError(t, err)

	tampered := []byte(blob)
	if tampered[len(tampered)-3] == 'A' {
		tampered[len(tampered)-3] = 'B'
	} else {
		tampered[len(tampered)-3] = 'A'
	}

	tests := []struct {
		name       string
		blob       string
		passphrase string
	}{
		{"wrong passphrase", blob, "other"},
		{"not base64", "!!!", "pass"},
		{"too short", "AAAA", "pass"},
		{"tampered ciphertext", string(tampered), "pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.blob, tt.passphrase, LightScryptParams)
			require.ErrorIs(t, err, ErrDecrypt)
		})
	}
}

func TestInvalidParams(t *testing.T) {
	_, err := Encrypt([]byte("x"), "pass", ScryptParams{N: 3, R: 1, P: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecrypt)
}
