// Package cryptox implements the file encryption used for uploads with the
// encryption flag set: AES-256-GCM with a random per-file key. Keys are
// returned to the caller and remain opaque to persistence, which only stores
// the encrypted-key blob the client hands back.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"unidrive/internal/common"
)

// ErrCiphertextTooShort is returned by Decrypt when the input is shorter
// than the AEAD nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// GenerateKey returns a new random 32-byte AES-256 key.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(32)
}

// Encrypt seals plaintext with AES-GCM under key. The random 12-byte nonce
// is prepended to the returned ciphertext so the blob is self-contained.
//
// The key must be a valid AES key length (16, 24, or 32 bytes).
func Encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt with the same key. The nonce is
// read from the front of the ciphertext.
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aesgcm.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce, sealed := ciphertext[:aesgcm.NonceSize()], ciphertext[aesgcm.NonceSize():]
	return aesgcm.Open(nil, nonce, sealed, nil)
}

// Checksum returns the hex-encoded SHA-256 digest of data. Stored on the
// file row at upload time.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
