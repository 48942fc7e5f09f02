package remote

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/cryptox"
)

// envelope is the on-wire wrapper of every object the accessor writes.
// Data holds ciphertext when Encrypted, plaintext JSON otherwise. Sig is a
// content digest standing in for the store's signature; the real signing
// and verification happen inside the remote store layer.
type envelope struct {
	Encrypted bool   `json:"encrypted"`
	Nonce     []byte `json:"nonce,omitempty"`
	Data      []byte `json:"data"`
	Sig       string `json:"sig,omitempty"`
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// seal wraps plaintext into an envelope. A nil key produces a public
// (unencrypted, unsigned) envelope; otherwise the payload is AES-GCM
// encrypted and signed.
func seal(plaintext, key []byte) ([]byte, error) {
	env := envelope{Data: plaintext}
	if key != nil {
		ciphertext, nonce, err := cryptox.EncryptBytes(plaintext, key)
		if err != nil {
			return nil, err
		}
		env = envelope{Encrypted: true, Nonce: nonce, Data: ciphertext, Sig: digest(ciphertext)}
	}
	return json.Marshal(env)
}

// open unwraps an envelope produced by seal. Returns common.ErrCorrupt on
// malformed wrappers, failed verification, or failed decryption.
func open(blob, key []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: invalid envelope: %v", common.ErrCorrupt, err)
	}
	if env.Sig != "" && env.Sig != digest(env.Data) {
		return nil, fmt.Errorf("%w: signature mismatch", common.ErrCorrupt)
	}
	if !env.Encrypted {
		return env.Data, nil
	}
	if key == nil {
		return nil, fmt.Errorf("%w: encrypted object, no key", common.ErrUnauthorized)
	}
	plaintext, err := cryptox.DecryptBytes(env.Data, env.Nonce, key)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed", common.ErrCorrupt)
	}
	return plaintext, nil
}
