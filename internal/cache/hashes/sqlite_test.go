package hashes

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/mediasync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE searchable_hashes (
  id TEXT PRIMARY KEY,
  hash_id TEXT NOT NULL,
  cache_id TEXT NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestReplaceForCache_ReplacesWholeSet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	first := []models.SearchHash{
		{Id: "e1", HashId: "h1", CacheId: "c1"},
		{Id: "e2", HashId: "h2", CacheId: "c1"},
	}
	require.NoError(t, r.ReplaceForCache(ctx, "c1", first))

	got, err := r.FindCacheIds(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, got)

	// replacing drops tokens that no longer exist
	second := []models.SearchHash{
		{Id: "e3", HashId: "h3", CacheId: "c1"},
	}
	require.NoError(t, r.ReplaceForCache(ctx, "c1", second))

	got, err = r.FindCacheIds(ctx, "h1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.FindCacheIds(ctx, "h3")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, got)
}

func TestReplaceForCache_DoesNotTouchOtherRecords(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceForCache(ctx, "c1", []models.SearchHash{{Id: "e1", HashId: "h1", CacheId: "c1"}}))
	require.NoError(t, r.ReplaceForCache(ctx, "c2", []models.SearchHash{{Id: "e2", HashId: "h1", CacheId: "c2"}}))

	require.NoError(t, r.ReplaceForCache(ctx, "c1", nil))

	got, err := r.FindCacheIds(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, got)
}

func TestDeleteByCacheId(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceForCache(ctx, "c1", []models.SearchHash{
		{Id: "e1", HashId: "h1", CacheId: "c1"},
		{Id: "e2", HashId: "h2", CacheId: "c1"},
	}))

	require.NoError(t, r.DeleteByCacheId(ctx, "c1"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM searchable_hashes`).Scan(&count))
	assert.Equal(t, 0, count)
}
