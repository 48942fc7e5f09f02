package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediasync/internal/common"
)

// Keyring resolves the symmetric keys guarding remote objects. The
// asymmetric exchange that provisions these keys is outside the engine;
// here they are already-unwrapped AES keys.
type Keyring interface {
	// ScopeKey returns the key for scope-level objects (master index,
	// share index, key files). viewer is empty for the user's own scope.
	ScopeKey(ctx context.Context, viewer string) ([]byte, error)

	// RecordKey resolves the per-record key for the record index object
	// at the given store key, reading the record's private.key object.
	RecordKey(ctx context.Context, recordKey string, viewer string) ([]byte, error)
}

// recordKeyFile is the decrypted content of a <type>/<id>/private.key object.
type recordKeyFile struct {
	Key []byte `json:"key"`
}

// StaticKeyring serves the session master key for the user's own scope and
// pre-provisioned shared keys for viewer scopes.
type StaticKeyring struct {
	store      ObjectStore
	masterKey  []byte
	sharedKeys map[string][]byte
}

func NewStaticKeyring(store ObjectStore, masterKey []byte, sharedKeys map[string][]byte) *StaticKeyring {
	return &StaticKeyring{store: store, masterKey: masterKey, sharedKeys: sharedKeys}
}

func (k *StaticKeyring) ScopeKey(ctx context.Context, viewer string) ([]byte, error) {
	if viewer == "" {
		if k.masterKey == nil {
			return nil, common.ErrSessionNotReady
		}
		return k.masterKey, nil
	}
	key, ok := k.sharedKeys[viewer]
	if !ok {
		return nil, fmt.Errorf("%w: no shared key for %s", common.ErrUnauthorized, viewer)
	}
	return key, nil
}

func (k *StaticKeyring) RecordKey(ctx context.Context, recordKey string, viewer string) ([]byte, error) {
	scopeKey, err := k.ScopeKey(ctx, viewer)
	if err != nil {
		return nil, err
	}

	blob, err := k.store.Get(ctx, RecordKeyPath(recordKey))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: missing key file for %s", common.ErrUnauthorized, recordKey)
		}
		return nil, err
	}

	plaintext, err := open(blob, scopeKey)
	if err != nil {
		return nil, err
	}

	var kf recordKeyFile
	if err := json.Unmarshal(plaintext, &kf); err != nil {
		return nil, fmt.Errorf("%w: invalid key file", common.ErrCorrupt)
	}
	return kf.Key, nil
}

// RecordKeyPath maps a record index key to its key-file key, e.g.
// "pk/videos/a.index" -> "pk/videos/a/private.key".
func RecordKeyPath(recordKey string) string {
	return strings.TrimSuffix(recordKey, common.IndexSuffix) + "/" + common.PrivateKeyObject
}
