package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := GenerateKey()
	require.Len(t, key, 32)

	plaintext := []byte("the quick brown fox")

	ciphertext, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongKey(t *testing.T) {
	key := GenerateKey()
	ciphertext, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, GenerateKey())
	assert.Error(t, err)
}

func TestDecryptTooShort(t *testing.T) {
	_, err := Decrypt([]byte{0x01, 0x02}, GenerateKey())
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestEncryptInvalidKeyLength(t *testing.T) {
	_, err := Encrypt([]byte("data"), []byte("short"))
	assert.Error(t, err)
}

func TestChecksum(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Checksum([]byte("abc")))

	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}

func TestEncryptNonceUnique(t *testing.T) {
	key := GenerateKey()
	c1, err := Encrypt([]byte("same"), key)
	require.NoError(t, err)
	c2, err := Encrypt([]byte("same"), key)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}
