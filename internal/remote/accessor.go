package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/models"
	"github.com/sethvargo/go-retry"
)

// Accessor reads and writes the per-owner master index and record metadata
// objects, honoring the encryption scheme per scope: public objects are
// plaintext, private objects are sealed with the scope or record key.
type Accessor struct {
	store ObjectStore
	keys  Keyring
	log   logging.Logger
}

func NewAccessor(store ObjectStore, keys Keyring, log logging.Logger) *Accessor {
	return &Accessor{store: store, keys: keys, log: log.With("component", "remote")}
}

// Store exposes the underlying blob store for callers that need raw
// primitives (test seeding, rebuild).
func (a *Accessor) Store() ObjectStore { return a.store }

func masterIndexKey(scopeRoot string, isPublic bool) string {
	if isPublic {
		return scopeRoot + common.MasterIndexObject + "-public"
	}
	return scopeRoot + common.MasterIndexObject
}

// ReadMasterIndex reads and, for private scopes, decrypts and verifies the
// master index of one scope. Any fetch, parse, or verification failure is
// treated as "absent": the caller decides whether absence means "create
// fresh" (own scope) or "nothing published" (viewer scope).
func (a *Accessor) ReadMasterIndex(ctx context.Context, scopeRoot, viewer string, isPublic bool) (models.MasterIndex, error) {
	key := masterIndexKey(scopeRoot, isPublic)

	blob, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			a.log.Warn(ctx, "master index unreachable", "key", key, "error", err)
		}
		return nil, nil
	}

	var scopeKey []byte
	if !isPublic {
		scopeKey, err = a.keys.ScopeKey(ctx, viewer)
		if err != nil {
			a.log.Warn(ctx, "no scope key for master index", "key", key, "error", err)
			return nil, nil
		}
	}

	plaintext, err := open(blob, scopeKey)
	if err != nil {
		a.log.Warn(ctx, "unreadable master index", "key", key, "error", err)
		return nil, nil
	}

	var index models.MasterIndex
	if err := json.Unmarshal(plaintext, &index); err != nil {
		a.log.Warn(ctx, "malformed master index", "key", key, "error", err)
		return nil, nil
	}
	return index, nil
}

// CreateMasterIndex enumerates every record index object under the owner's
// recognized type prefixes, builds a fresh index with unknown timestamps,
// and persists it. Used when an owner has records but no index yet.
func (a *Accessor) CreateMasterIndex(ctx context.Context, scopeRoot string, types []string) (models.MasterIndex, error) {
	index := models.MasterIndex{}

	for _, t := range types {
		keys, err := a.store.List(ctx, scopeRoot+t+"/")
		if err != nil {
			return nil, fmt.Errorf("failed to list %s records: %w", t, err)
		}
		for _, key := range keys {
			if len(key) <= len(scopeRoot) {
				continue
			}
			path := key[len(scopeRoot):]
			if len(path) < len(common.IndexSuffix) || path[len(path)-len(common.IndexSuffix):] != common.IndexSuffix {
				continue
			}
			index[path] = nil
		}
	}

	if err := a.WriteMasterIndex(ctx, scopeRoot, index, false); err != nil {
		return nil, err
	}
	return index, nil
}

// WriteMasterIndex fully overwrites the scope's master index, sealed with
// the owner's scope key unless public. A failed write deletes the possibly
// partial object and retries exactly once before propagating the failure.
func (a *Accessor) WriteMasterIndex(ctx context.Context, scopeRoot string, index models.MasterIndex, isPublic bool) error {
	plaintext, err := json.Marshal(index)
	if err != nil {
		return err
	}

	var scopeKey []byte
	if !isPublic {
		scopeKey, err = a.keys.ScopeKey(ctx, "")
		if err != nil {
			return err
		}
	}

	blob, err := seal(plaintext, scopeKey)
	if err != nil {
		return err
	}

	key := masterIndexKey(scopeRoot, isPublic)

	backoff := retry.WithMaxRetries(1, retry.NewConstant(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := a.store.Put(ctx, key, blob); err != nil {
			a.log.Warn(ctx, "master index write failed, clearing partial object", "key", key, "error", err)
			_ = a.store.Delete(ctx, key)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// DeleteMasterIndex removes the scope's master index object. Failures other
// than absence are returned.
func (a *Accessor) DeleteMasterIndex(ctx context.Context, scopeRoot string, isPublic bool) error {
	return a.store.Delete(ctx, masterIndexKey(scopeRoot, isPublic))
}

// ReadRecord fetches and decodes one record index object. The error
// distinguishes the cases the reconciler cares about:
//   - common.ErrNotFound: confirmed absent, safe to prune
//   - common.ErrCorrupt: present but unreadable, safe to prune
//   - common.ErrUnauthorized: key material missing for this viewer
//   - common.ErrLegacyFormat: old-format record, skip without caching
//
// Anything else means the store was unreachable and the record's freshness
// is unknown.
func (a *Accessor) ReadRecord(ctx context.Context, key string, viewer string) (*models.RecordMetadata, error) {
	blob, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, key)
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrCorrupt, key)
	}

	var plaintext []byte
	if env.Encrypted {
		recordKey, err := a.keys.RecordKey(ctx, key, viewer)
		if err != nil {
			return nil, err
		}
		plaintext, err = open(blob, recordKey)
		if err != nil {
			return nil, err
		}
	} else {
		plaintext, err = open(blob, nil)
		if err != nil {
			return nil, err
		}
	}

	var meta models.RecordMetadata
	if err := json.Unmarshal(plaintext, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrCorrupt, key)
	}
	if meta.IsLegacy() {
		return nil, fmt.Errorf("%w: %s", common.ErrLegacyFormat, key)
	}
	return &meta, nil
}

// WriteRecord seals and stores one record index object plus its key file.
// The engine itself never mutates records during reconciliation; this
// serves the publish flow and tests.
func (a *Accessor) WriteRecord(ctx context.Context, key string, meta *models.RecordMetadata, recordKey []byte) error {
	plaintext, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	blob, err := seal(plaintext, recordKey)
	if err != nil {
		return err
	}
	if err := a.store.Put(ctx, key, blob); err != nil {
		return err
	}

	if recordKey == nil {
		return nil
	}

	scopeKey, err := a.keys.ScopeKey(ctx, "")
	if err != nil {
		return err
	}
	kf, err := json.Marshal(recordKeyFile{Key: recordKey})
	if err != nil {
		return err
	}
	sealed, err := seal(kf, scopeKey)
	if err != nil {
		return err
	}
	return a.store.Put(ctx, RecordKeyPath(key), sealed)
}

// ReadShareList reads the owner's share-index object. Absence yields an
// empty list.
func (a *Accessor) ReadShareList(ctx context.Context, scopeRoot string) (*models.ShareList, error) {
	blob, err := a.store.Get(ctx, scopeRoot+common.ShareIndexObject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &models.ShareList{}, nil
		}
		return nil, err
	}

	scopeKey, err := a.keys.ScopeKey(ctx, "")
	if err != nil {
		return nil, err
	}
	plaintext, err := open(blob, scopeKey)
	if err != nil {
		return nil, err
	}

	var list models.ShareList
	if err := json.Unmarshal(plaintext, &list); err != nil {
		return nil, fmt.Errorf("%w: share index", common.ErrCorrupt)
	}
	return &list, nil
}

// WriteShareList fully overwrites the owner's share-index object.
func (a *Accessor) WriteShareList(ctx context.Context, scopeRoot string, list *models.ShareList) error {
	plaintext, err := json.Marshal(list)
	if err != nil {
		return err
	}
	scopeKey, err := a.keys.ScopeKey(ctx, "")
	if err != nil {
		return err
	}
	blob, err := seal(plaintext, scopeKey)
	if err != nil {
		return err
	}
	return a.store.Put(ctx, scopeRoot+common.ShareIndexObject, blob)
}

// ReadGroupIndex reads one of the owner's group index objects.
func (a *Accessor) ReadGroupIndex(ctx context.Context, scopeRoot, groupId string) (*models.GroupIndex, error) {
	blob, err := a.store.Get(ctx, scopeRoot+"groups/"+groupId+common.IndexSuffix)
	if err != nil {
		return nil, err
	}

	scopeKey, err := a.keys.ScopeKey(ctx, "")
	if err != nil {
		return nil, err
	}
	plaintext, err := open(blob, scopeKey)
	if err != nil {
		return nil, err
	}

	var group models.GroupIndex
	if err := json.Unmarshal(plaintext, &group); err != nil {
		return nil, fmt.Errorf("%w: group index %s", common.ErrCorrupt, groupId)
	}
	return &group, nil
}

// WriteGroupIndex fully overwrites one group index object.
func (a *Accessor) WriteGroupIndex(ctx context.Context, scopeRoot string, group *models.GroupIndex) error {
	plaintext, err := json.Marshal(group)
	if err != nil {
		return err
	}
	scopeKey, err := a.keys.ScopeKey(ctx, "")
	if err != nil {
		return err
	}
	blob, err := seal(plaintext, scopeKey)
	if err != nil {
		return err
	}
	return a.store.Put(ctx, scopeRoot+"groups/"+group.Id+common.IndexSuffix, blob)
}
