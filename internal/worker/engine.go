package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediasync/internal/cache"
	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/cryptox"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/metrics"
	"github.com/dmitrijs2005/mediasync/internal/reconcile"
	"github.com/dmitrijs2005/mediasync/internal/remote"
	"github.com/dmitrijs2005/mediasync/internal/search"
	"github.com/dmitrijs2005/mediasync/internal/session"
)

// Engine is the context every data operation runs against: session, remote
// accessor, reconciler, and the recognized type set. Built once on the
// first load and held by the worker, so no state hides in package globals.
type Engine struct {
	sess     *session.Session
	accessor *remote.Accessor
	rec      *reconcile.Reconciler
	indexer  *search.Indexer
	root     string
	types    []string
	log      logging.Logger
}

func newEngine(sd SessionData, types []string, store *cache.Store, blobs remote.ObjectStore,
	secret []byte, log logging.Logger, m *metrics.Metrics) (*Engine, error) {

	sess, err := session.New(sd.Username, sd.OwnerPublicKey, sd.MasterKey, sd.AccessToken, secret)
	if err != nil {
		return nil, err
	}

	if len(types) == 0 {
		types = common.DefaultRecordTypes
	}

	keys := remote.NewStaticKeyring(blobs, sess.MasterKey, sd.SharedKeys)
	accessor := remote.NewAccessor(blobs, keys, log)
	indexer := search.NewIndexer(store.Hashes)

	// the cache uses its own derived key, so locally stored payloads are
	// never readable with the remote key material alone
	cacheKey := cryptox.DeriveMasterKey(sess.MasterKey, []byte("local-cache-v1"))
	rec := reconcile.New(accessor, store.Indexes, store.Hashes, indexer, cacheKey, log, m)

	return &Engine{
		sess:     sess,
		accessor: accessor,
		rec:      rec,
		indexer:  indexer,
		root:     sess.OwnerPublicKey + "/",
		types:    types,
		log:      log.With("component", "engine"),
	}, nil
}

// Load runs the full reconciliation fan-out and returns per-type counts of
// newly added or updated records.
func (e *Engine) Load(ctx context.Context) (reconcile.Counts, error) {
	if err := e.sess.Check(); err != nil {
		return nil, err
	}
	return e.rec.RunAll(ctx, e.sess.OwnerPublicKey, e.root, e.types)
}

// CacheIndexes refreshes a batch of the user's own records into the cache.
func (e *Engine) CacheIndexes(ctx context.Context, indexFiles []string) error {
	if err := e.sess.Check(); err != nil {
		return err
	}
	for _, path := range indexFiles {
		if err := e.rec.UpdateOne(ctx, e.sess.OwnerPublicKey, e.root, path); err != nil {
			return fmt.Errorf("failed to cache %s: %w", path, err)
		}
	}
	return nil
}

// UpdateCache refreshes one record.
func (e *Engine) UpdateCache(ctx context.Context, indexFile string) error {
	if err := e.sess.Check(); err != nil {
		return err
	}
	return e.rec.UpdateOne(ctx, e.sess.OwnerPublicKey, e.root, indexFile)
}

// RemoveCache drops one record from the cache and the master index.
func (e *Engine) RemoveCache(ctx context.Context, indexFile string) error {
	if err := e.sess.Check(); err != nil {
		return err
	}
	return e.rec.RemoveOne(ctx, e.sess.OwnerPublicKey, e.root, indexFile)
}

// ClearRemoteIndexes removes the owner's master index objects so a later
// load rebuilds them from the store listing.
func (e *Engine) ClearRemoteIndexes(ctx context.Context) {
	for _, isPublic := range []bool{false, true} {
		if err := e.accessor.DeleteMasterIndex(ctx, e.root, isPublic); err != nil &&
			!errors.Is(err, common.ErrNotFound) {
			e.log.Warn(ctx, "failed to clear remote master index", "public", isPublic, "error", err)
		}
	}
}

// ValidateGroup re-checks entries reported missing from a group index and
// rewrites the group without those confirmed absent. Entries that cannot
// be confirmed (unreachable owner, unknown sharer) are kept.
func (e *Engine) ValidateGroup(ctx context.Context, groupId string, missing []MissingGroupEntry) error {
	if err := e.sess.Check(); err != nil {
		return err
	}

	group, err := e.accessor.ReadGroupIndex(ctx, e.root, groupId)
	if err != nil {
		return fmt.Errorf("failed to read group %s: %w", groupId, err)
	}

	shares, err := e.accessor.ReadShareList(ctx, e.root)
	if err != nil {
		return err
	}
	roots := map[string]string{e.sess.Username: e.root}
	for _, s := range shares.Entries {
		roots[s.Username] = s.PublicKey + "/"
	}

	confirmed := make(map[string]struct{})
	for _, m := range missing {
		root, ok := roots[m.UserName]
		if !ok {
			e.log.Warn(ctx, "unknown group member, keeping entry", "user", m.UserName)
			continue
		}
		viewer := ""
		if m.UserName != e.sess.Username {
			viewer = m.UserName
		}
		_, err := e.accessor.ReadRecord(ctx, root+m.IndexFile, viewer)
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrCorrupt) {
			confirmed[m.UserName+"|"+m.IndexFile] = struct{}{}
		}
	}
	if len(confirmed) == 0 {
		return nil
	}

	kept := group.Entries[:0]
	for _, entry := range group.Entries {
		if _, gone := confirmed[entry.UserName+"|"+entry.IndexFile]; gone {
			continue
		}
		kept = append(kept, entry)
	}
	group.Entries = kept

	return e.accessor.WriteGroupIndex(ctx, e.root, group)
}
