package common

import "crypto/rand"

// GenerateRandByteArray returns a slice of size cryptographically random
// bytes. It panics if the system source of randomness is unavailable.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
