// Package cryptox implements the symmetric primitives the cache engine uses
// as black boxes: AES-GCM over JSON-serialized values for locally cached
// payloads, raw AES-GCM for per-record key material, and argon2id key
// derivation for the local cache master key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"golang.org/x/crypto/argon2"
)

// MakeVerifier returns a hash of the master key suitable for storing
// alongside the cache to detect a wrong passphrase without decrypting.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches a passphrase into a 32-byte AES key with
// argon2id. The salt must be stable per cache database.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// EncryptEntry serializes the given value to JSON and encrypts it using
// AES-GCM. The key must be 16, 24, or 32 bytes. A fresh random 12-byte
// nonce is generated per call and returned separately.
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}
	ciphertext, nonce, err = EncryptBytes(plaintext, key)
	return ciphertext, nonce, err
}

// DecryptEntry decrypts ciphertext produced by EncryptEntry and unmarshals
// the JSON into v.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	plaintext, err := DecryptBytes(ciphertext, nonce, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}

// EncryptBytes encrypts a raw byte slice with AES-GCM.
func EncryptBytes(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// DecryptBytes reverses EncryptBytes with the same key and nonce.
func DecryptBytes(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}
