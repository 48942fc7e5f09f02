// Package hashes is the repository for the searchable_hashes table: salted
// prefix-hash tokens linked to their owning cache row. A record's token set
// is always replaced wholesale, never patched.
package hashes

import (
	"context"

	"github.com/dmitrijs2005/mediasync/internal/models"
)

type Repository interface {
	// ReplaceForCache deletes every row belonging to cacheId and inserts
	// the given rows in a single transaction, so no stale token survives
	// a metadata edit and no reader observes a half-written set.
	ReplaceForCache(ctx context.Context, cacheId string, rows []models.SearchHash) error

	DeleteByCacheId(ctx context.Context, cacheId string) error

	// FindCacheIds returns the distinct cache ids whose token set
	// contains hashId.
	FindCacheIds(ctx context.Context, hashId string) ([]string, error)
}
