// Package reconcile implements the synchronization algorithm: diffing a
// scope's remote master index against the local cache section, fetching
// only changed records, re-encrypting them for local storage, self-healing
// the master index, and pruning rows that vanished remotely.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediasync/internal/cache/hashes"
	"github.com/dmitrijs2005/mediasync/internal/cache/indexes"
	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/cryptox"
	"github.com/dmitrijs2005/mediasync/internal/ident"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/metrics"
	"github.com/dmitrijs2005/mediasync/internal/models"
	"github.com/dmitrijs2005/mediasync/internal/remote"
	"github.com/dmitrijs2005/mediasync/internal/search"
)

// Scope identifies one (owner, visibility, viewing-context) reconciliation
// target. Viewer is empty when the user reconciles their own data.
type Scope struct {
	OwnerPublicKey string
	Root           string
	Viewer         string
	IsPublic       bool
}

// Counts accumulates newly-added-or-updated records per record type.
type Counts map[string]int

func (c Counts) Merge(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Reconciler drives the per-scope pass and the fan-out across scopes.
type Reconciler struct {
	accessor *remote.Accessor
	indexes  indexes.Repository
	hashes   hashes.Repository
	indexer  *search.Indexer
	cacheKey []byte
	log      logging.Logger
	metrics  *metrics.Metrics
}

func New(accessor *remote.Accessor, idx indexes.Repository, h hashes.Repository, indexer *search.Indexer,
	cacheKey []byte, log logging.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		accessor: accessor,
		indexes:  idx,
		hashes:   h,
		indexer:  indexer,
		cacheKey: cacheKey,
		log:      log.With("component", "reconcile"),
		metrics:  m,
	}
}

// RunScope reconciles one scope against its master index and returns the
// per-type count of records added or updated. An absent master index yields
// a zero delta, except for the user's own private scope where a fresh index
// is built from the store listing.
func (r *Reconciler) RunScope(ctx context.Context, scope Scope, types []string) (Counts, error) {
	counts := Counts{}

	index, err := r.accessor.ReadMasterIndex(ctx, scope.Root, scope.Viewer, scope.IsPublic)
	if err != nil {
		return nil, err
	}
	if index == nil {
		if scope.Viewer != "" || scope.IsPublic {
			return counts, nil
		}
		index, err = r.accessor.CreateMasterIndex(ctx, scope.Root, types)
		if err != nil {
			return nil, fmt.Errorf("failed to create master index: %w", err)
		}
	}

	recognized := make(map[string]struct{}, len(types))
	for _, t := range types {
		recognized[t] = struct{}{}
	}

	existing, err := r.loadExistingCache(ctx, scope, types)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(index))
	var missing []string

	for path, remoteTs := range index {
		if _, ok := recognized[models.RecordType(path)]; !ok {
			continue
		}

		id := ident.Derive(scope.OwnerPublicKey, path, scope.Viewer)
		present[id] = struct{}{}

		cachedTs, cached := existing[id]
		if cached && (remoteTs == nil || *remoteTs <= cachedTs) {
			continue
		}

		meta, err := r.accessor.ReadRecord(ctx, scope.Root+path, scope.Viewer)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrLegacyFormat):
				r.log.Debug(ctx, "skipping legacy record", "path", path)
			case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrCorrupt):
				// confirmed gone or unreadable at rest: a candidate
				// for index self-healing
				missing = append(missing, path)
				r.metrics.RecordsMissing.Inc()
				r.log.Warn(ctx, "record unreadable, queued for pruning", "path", path, "error", err)
			default:
				// unreachable is not absent; leave the index alone
				r.log.Warn(ctx, "record fetch failed", "path", path, "error", err)
			}
			continue
		}

		if err := r.storeRecord(ctx, id, meta, scope, cached); err != nil {
			r.log.Error(ctx, "failed to cache record", "path", path, "error", err)
			continue
		}
		counts[meta.Type]++
		r.metrics.RecordsFetched.WithLabelValues(meta.Type).Inc()
	}

	// self-healing of dangling references applies only to the user's own
	// index, never to another owner's view of their data
	if scope.Viewer == "" && len(missing) > 0 {
		healed := index.Clone()
		for _, path := range missing {
			delete(healed, path)
		}
		if err := r.accessor.WriteMasterIndex(ctx, scope.Root, healed, scope.IsPublic); err != nil {
			return nil, fmt.Errorf("failed to persist healed master index: %w", err)
		}
	}

	for id := range existing {
		if _, ok := present[id]; ok {
			continue
		}
		if err := r.deleteEntry(ctx, id); err != nil {
			return nil, err
		}
		r.metrics.RecordsPruned.Inc()
	}

	r.metrics.PassesTotal.Inc()
	return counts, nil
}

// RunAll runs the full fan-out: the user's own private and public scopes,
// then a private/public pair per share-list entry. Counts are merged; a
// failing viewer scope is logged and skipped so one unreachable sharer
// cannot abort the whole load.
func (r *Reconciler) RunAll(ctx context.Context, ownerPublicKey, ownerRoot string, types []string) (Counts, error) {
	counts := Counts{}

	for _, scope := range []Scope{
		{OwnerPublicKey: ownerPublicKey, Root: ownerRoot, IsPublic: false},
		{OwnerPublicKey: ownerPublicKey, Root: ownerRoot, IsPublic: true},
	} {
		c, err := r.RunScope(ctx, scope, types)
		if err != nil {
			return nil, err
		}
		counts.Merge(c)
	}

	shares, err := r.accessor.ReadShareList(ctx, ownerRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read share list: %w", err)
	}

	for _, share := range shares.Entries {
		root := share.PublicKey + "/"
		for _, isPublic := range []bool{false, true} {
			scope := Scope{
				OwnerPublicKey: share.PublicKey,
				Root:           root,
				Viewer:         share.Username,
				IsPublic:       isPublic,
			}
			c, err := r.RunScope(ctx, scope, types)
			if err != nil {
				r.log.Warn(ctx, "share scope failed", "sharer", share.Username, "error", err)
				continue
			}
			counts.Merge(c)
		}
	}

	return counts, nil
}

// UpdateOne refreshes a single record of the user's own data into the
// cache and bumps its master index mapping. Legacy-format records are
// skipped silently, matching the full pass.
func (r *Reconciler) UpdateOne(ctx context.Context, ownerPublicKey, ownerRoot, path string) error {
	meta, err := r.accessor.ReadRecord(ctx, ownerRoot+path, "")
	if err != nil {
		if errors.Is(err, common.ErrLegacyFormat) {
			return nil
		}
		return fmt.Errorf("failed to read record %s: %w", path, err)
	}

	scope := Scope{OwnerPublicKey: ownerPublicKey, Root: ownerRoot, IsPublic: meta.IsPublic}
	id := ident.Derive(ownerPublicKey, path, "")

	_, err = r.indexes.GetById(ctx, id)
	isUpdate := err == nil
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	if err := r.storeRecord(ctx, id, meta, scope, isUpdate); err != nil {
		return err
	}

	return r.bumpMasterIndex(ctx, ownerRoot, path, &meta.LastUpdatedUTC, meta.IsPublic)
}

// RemoveOne drops a record's cache row and search tokens and removes its
// mapping from whichever master index variants still list it.
func (r *Reconciler) RemoveOne(ctx context.Context, ownerPublicKey, ownerRoot, path string) error {
	id := ident.Derive(ownerPublicKey, path, "")
	if err := r.deleteEntry(ctx, id); err != nil {
		return err
	}

	for _, isPublic := range []bool{false, true} {
		index, err := r.accessor.ReadMasterIndex(ctx, ownerRoot, "", isPublic)
		if err != nil {
			return err
		}
		if index == nil {
			continue
		}
		if _, ok := index[path]; !ok {
			continue
		}
		delete(index, path)
		if err := r.accessor.WriteMasterIndex(ctx, ownerRoot, index, isPublic); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) loadExistingCache(ctx context.Context, scope Scope, types []string) (map[string]int64, error) {
	existing := make(map[string]int64)
	for _, t := range types {
		section := ident.Section(scope.OwnerPublicKey, t)
		entries, err := r.indexes.ListSection(ctx, section, scope.Viewer, scope.IsPublic)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section %s: %w", section, err)
		}
		for _, e := range entries {
			existing[e.Id] = e.LastUpdated
		}
	}
	return existing, nil
}

// storeRecord re-encrypts decrypted metadata under the cache's own key and
// upserts the row plus its search tokens. The cache never holds the remote
// key material alongside the data.
func (r *Reconciler) storeRecord(ctx context.Context, id string, meta *models.RecordMetadata, scope Scope, isUpdate bool) error {
	payload, nonce, err := cryptox.EncryptEntry(meta, r.cacheKey)
	if err != nil {
		return fmt.Errorf("failed to re-encrypt record %s: %w", meta.Id, err)
	}

	entry := &models.CacheEntry{
		Id:          id,
		Payload:     payload,
		Nonce:       nonce,
		Section:     ident.Section(scope.OwnerPublicKey, meta.Type),
		LastUpdated: meta.LastUpdatedUTC,
		ShareeName:  scope.Viewer,
		IsPublic:    scope.IsPublic,
	}
	if err := r.indexes.Upsert(ctx, entry); err != nil {
		return err
	}

	written, err := r.indexer.IndexRecord(ctx, id, meta, isUpdate)
	if err != nil {
		return err
	}
	r.metrics.TokensWritten.Add(float64(written))
	return nil
}

func (r *Reconciler) deleteEntry(ctx context.Context, id string) error {
	if err := r.indexes.DeleteById(ctx, id); err != nil {
		return err
	}
	return r.hashes.DeleteByCacheId(ctx, id)
}

func (r *Reconciler) bumpMasterIndex(ctx context.Context, ownerRoot, path string, ts *int64, isPublic bool) error {
	index, err := r.accessor.ReadMasterIndex(ctx, ownerRoot, "", isPublic)
	if err != nil {
		return err
	}
	if index == nil {
		index = models.MasterIndex{}
	}
	index[path] = ts
	return r.accessor.WriteMasterIndex(ctx, ownerRoot, index, isPublic)
}
