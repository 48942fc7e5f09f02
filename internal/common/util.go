package common

import "crypto/rand"

// GenerateRandByteArray returns n cryptographically random bytes.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites b with zeros. Used to drop passphrases and key
// material from memory once a derived key replaces them.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
