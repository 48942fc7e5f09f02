// Package indexes is the repository for the cached_indexes table: locally
// re-encrypted record metadata keyed by derived identifier, scoped by the
// ownerPublicKey_recordType section key.
package indexes

import (
	"context"

	"github.com/dmitrijs2005/mediasync/internal/models"
)

// Page is one slice of a section scan. Resume continues where the scan
// stopped; it stays valid across process restarts because it is just the
// last-seen primary key.
type Page struct {
	Entries []models.CacheEntry
	Resume  string
}

type Repository interface {
	// Upsert inserts or fully replaces the row with entry.Id.
	Upsert(ctx context.Context, entry *models.CacheEntry) error

	// GetById returns common.ErrNotFound when the row is absent.
	GetById(ctx context.Context, id string) (*models.CacheEntry, error)

	DeleteById(ctx context.Context, id string) error

	// ListSection returns every row of one section matching the sharing
	// context exactly: shareeName is empty for the owner's own scope.
	ListSection(ctx context.Context, section, shareeName string, isPublic bool) ([]models.CacheEntry, error)

	// ListSectionPage is the paginated form of ListSection. Pass the
	// previous page's Resume token to continue; an empty token starts
	// from the beginning. A short (or empty) Entries slice with an empty
	// Resume marks the end.
	ListSectionPage(ctx context.Context, section, shareeName string, isPublic bool, resume string, limit int) (*Page, error)
}
