package indexes

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/mediasync/internal/common"
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
CREATE TABLE cached_indexes (
  id TEXT PRIMARY KEY,
  payload BLOB NOT NULL,
  nonce BLOB NOT NULL,
  section TEXT NOT NULL,
  last_updated INTEGER NOT NULL DEFAULT 0,
  sharee_name TEXT NOT NULL DEFAULT '',
  is_public INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func entry(id, section, sharee string, isPublic bool, updated int64) *models.CacheEntry {
	return &models.CacheEntry{
		Id:          id,
		Payload:     []byte("payload-" + id),
		Nonce:       []byte("nonce"),
		Section:     section,
		LastUpdated: updated,
		ShareeName:  sharee,
		IsPublic:    isPublic,
	}
}

func TestUpsert_InsertAndReplace(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, entry("id1", "pk_videos", "", false, 100)))

	got, err := r.GetById(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.LastUpdated)

	// same id, newer payload
	e := entry("id1", "pk_videos", "", false, 200)
	e.Payload = []byte("updated")
	require.NoError(t, r.Upsert(ctx, e))

	got, err = r.GetById(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got.Payload)
	assert.Equal(t, int64(200), got.LastUpdated)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cached_indexes`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetById_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetById(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteById(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, entry("id1", "pk_videos", "", false, 1)))
	require.NoError(t, r.DeleteById(ctx, "id1"))

	_, err := r.GetById(ctx, "id1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// deleting an absent row is not an error
	require.NoError(t, r.DeleteById(ctx, "id1"))
}

func TestListSection_FiltersSharingContext(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, entry("own", "pk_videos", "", false, 1)))
	require.NoError(t, r.Upsert(ctx, entry("pub", "pk_videos", "", true, 2)))
	require.NoError(t, r.Upsert(ctx, entry("shared", "pk_videos", "alice", false, 3)))
	require.NoError(t, r.Upsert(ctx, entry("other-section", "pk_images", "", false, 4)))

	tests := []struct {
		name     string
		sharee   string
		isPublic bool
		want     []string
	}{
		{"own scope", "", false, []string{"own"}},
		{"public scope", "", true, []string{"pub"}},
		{"viewer scope", "alice", false, []string{"shared"}},
		{"viewer public scope", "alice", true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.ListSection(ctx, "pk_videos", tc.sharee, tc.isPublic)
			require.NoError(t, err)
			var ids []string
			for _, e := range got {
				ids = append(ids, e.Id)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestListSectionPage_ResumeAcrossPages(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e"}
	for i, id := range ids {
		require.NoError(t, r.Upsert(ctx, entry(id, "pk_videos", "", false, int64(i))))
	}

	var collected []string
	resume := ""
	pages := 0
	for {
		page, err := r.ListSectionPage(ctx, "pk_videos", "", false, resume, 2)
		require.NoError(t, err)
		for _, e := range page.Entries {
			collected = append(collected, e.Id)
		}
		pages++
		if page.Resume == "" {
			break
		}
		resume = page.Resume
	}

	assert.Equal(t, ids, collected)
	assert.Equal(t, 3, pages)
}
