package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediasync/internal/cache/hashes"
	"github.com/dmitrijs2005/mediasync/internal/ident"
	"github.com/dmitrijs2005/mediasync/internal/models"
)

// Indexer derives prefix-hash tokens from record metadata and keeps the
// searchable_hashes table in sync with it.
type Indexer struct {
	repo hashes.Repository
}

func NewIndexer(repo hashes.Repository) *Indexer {
	return &Indexer{repo: repo}
}

// Rows computes the full token row set for one cache entry. The hash is
// salted with the record type, so "sun" in videos and "sun" in images are
// distinct index entries.
func Rows(cacheId string, meta *models.RecordMetadata) []models.SearchHash {
	texts := append([]string{meta.Title}, meta.Keywords...)
	seen := make(map[string]struct{})
	var rows []models.SearchHash
	for _, token := range Tokenize(texts...) {
		for _, prefix := range Prefixes(token) {
			hashId := ident.Hash(meta.Type, prefix)
			entryId := ident.Hash(cacheId, hashId)
			if _, ok := seen[entryId]; ok {
				continue
			}
			seen[entryId] = struct{}{}
			rows = append(rows, models.SearchHash{Id: entryId, HashId: hashId, CacheId: cacheId})
		}
	}
	return rows
}

// IndexRecord fully replaces the token set of one cache entry and returns
// the number of rows written. The whole set is regenerated on every call,
// so an edit can never leave stale tokens behind regardless of isUpdate;
// the flag only exists so callers can report adds and updates separately.
func (x *Indexer) IndexRecord(ctx context.Context, cacheId string, meta *models.RecordMetadata, isUpdate bool) (int, error) {
	rows := Rows(cacheId, meta)
	if err := x.repo.ReplaceForCache(ctx, cacheId, rows); err != nil {
		return 0, fmt.Errorf("failed to index record %s: %w", meta.Id, err)
	}
	return len(rows), nil
}

// RemoveRecord drops every token belonging to one cache entry.
func (x *Indexer) RemoveRecord(ctx context.Context, cacheId string) error {
	return x.repo.DeleteByCacheId(ctx, cacheId)
}

// Search returns the cache ids whose indexed tokens start with term,
// normalized the same way indexing normalizes them. Terms shorter than
// MinTokenLength match nothing.
func (x *Indexer) Search(ctx context.Context, recordType, term string) ([]string, error) {
	token := NormalizeToken(strings.TrimSpace(term))
	if token == "" {
		return nil, nil
	}
	runes := []rune(token)
	if len(runes) > MaxPrefixLength {
		runes = runes[:MaxPrefixLength]
	}
	hashId := ident.Hash(recordType, string(runes))
	return x.repo.FindCacheIds(ctx, hashId)
}
