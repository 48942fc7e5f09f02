package remote

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMasterKey = []byte("0123456789abcdef0123456789abcdef")
	testSharedKey = []byte("fedcba9876543210fedcba9876543210")
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestAccessor(t *testing.T) (*Accessor, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	keys := NewStaticKeyring(store, testMasterKey, map[string][]byte{"owen": testSharedKey})
	return NewAccessor(store, keys, testLogger()), store
}

func ts(v int64) *int64 { return &v }

func TestMasterIndex_WriteReadRoundTrip(t *testing.T) {
	a, store := newTestAccessor(t)
	ctx := context.Background()

	index := models.MasterIndex{
		"videos/a.index": ts(100),
		"images/b.index": nil,
	}
	require.NoError(t, a.WriteMasterIndex(ctx, "pk/", index, false))

	got, err := a.ReadMasterIndex(ctx, "pk/", "", false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(100), *got["videos/a.index"])
	assert.Nil(t, got["images/b.index"])

	// the private object is sealed, not plaintext JSON
	blob, err := store.Get(ctx, "pk/master-index")
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "videos/a.index")
}

func TestReadMasterIndex_AbsentIsNil(t *testing.T) {
	a, _ := newTestAccessor(t)

	got, err := a.ReadMasterIndex(context.Background(), "pk/", "", false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadMasterIndex_CorruptIsNil(t *testing.T) {
	a, store := newTestAccessor(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "pk/master-index", []byte("not json")))

	got, err := a.ReadMasterIndex(ctx, "pk/", "", false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteMasterIndex_RetriesOnceAfterFailure(t *testing.T) {
	a, store := newTestAccessor(t)
	ctx := context.Background()

	store.FailPuts = 1
	require.NoError(t, a.WriteMasterIndex(ctx, "pk/", models.MasterIndex{"videos/a.index": nil}, false))

	got, err := a.ReadMasterIndex(ctx, "pk/", "", false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, got, "videos/a.index")
}

func TestWriteMasterIndex_PropagatesAfterSecondFailure(t *testing.T) {
	a, store := newTestAccessor(t)

	store.FailPuts = 2
	err := a.WriteMasterIndex(context.Background(), "pk/", models.MasterIndex{}, false)
	assert.Error(t, err)
}

func TestCreateMasterIndex_EnumeratesRecognizedTypes(t *testing.T) {
	a, store := newTestAccessor(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "pk/videos/a.index", []byte("x")))
	require.NoError(t, store.Put(ctx, "pk/videos/a/private.key", []byte("x")))
	require.NoError(t, store.Put(ctx, "pk/images/b.index", []byte("x")))
	require.NoError(t, store.Put(ctx, "pk/unrelated/c.index", []byte("x")))

	index, err := a.CreateMasterIndex(ctx, "pk/", []string{"videos", "images"})
	require.NoError(t, err)

	assert.Len(t, index, 2)
	assert.Contains(t, index, "videos/a.index")
	assert.Contains(t, index, "images/b.index")
	assert.Nil(t, index["videos/a.index"])

	// persisted for the next load
	got, err := a.ReadMasterIndex(ctx, "pk/", "", false)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReadRecord_Encrypted(t *testing.T) {
	a, _ := newTestAccessor(t)
	ctx := context.Background()

	meta := &models.RecordMetadata{
		Id: "a", Title: "Sunset Beach", Type: "videos", Owner: "pk", LastUpdatedUTC: 42,
	}
	recordKey := []byte("recordkey0123456789recordkey0123")
	require.NoError(t, a.WriteRecord(ctx, "pk/videos/a.index", meta, recordKey))

	got, err := a.ReadRecord(ctx, "pk/videos/a.index", "")
	require.NoError(t, err)
	assert.Equal(t, "Sunset Beach", got.Title)
	assert.Equal(t, int64(42), got.LastUpdatedUTC)
}

func TestReadRecord_Plaintext(t *testing.T) {
	a, _ := newTestAccessor(t)
	ctx := context.Background()

	meta := &models.RecordMetadata{Id: "a", Title: "Public Clip", Type: "videos"}
	require.NoError(t, a.WriteRecord(ctx, "pk/videos/a.index", meta, nil))

	got, err := a.ReadRecord(ctx, "pk/videos/a.index", "")
	require.NoError(t, err)
	assert.Equal(t, "Public Clip", got.Title)
}

func TestReadRecord_ErrorTaxonomy(t *testing.T) {
	a, store := newTestAccessor(t)
	ctx := context.Background()

	// absent
	_, err := a.ReadRecord(ctx, "pk/videos/missing.index", "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// corrupt blob
	require.NoError(t, store.Put(ctx, "pk/videos/bad.index", []byte("{{{")))
	_, err = a.ReadRecord(ctx, "pk/videos/bad.index", "")
	assert.ErrorIs(t, err, common.ErrCorrupt)

	// encrypted without a key file
	blob, serr := seal([]byte(`{"id":"x"}`), testMasterKey)
	require.NoError(t, serr)
	require.NoError(t, store.Put(ctx, "pk/videos/nokey.index", blob))
	_, err = a.ReadRecord(ctx, "pk/videos/nokey.index", "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// legacy format
	legacy := &models.RecordMetadata{Id: "old", Cipher: "v1:abcdef"}
	require.NoError(t, a.WriteRecord(ctx, "pk/videos/old.index", legacy, nil))
	_, err = a.ReadRecord(ctx, "pk/videos/old.index", "")
	assert.ErrorIs(t, err, common.ErrLegacyFormat)
}

func TestReadRecord_ViewerUsesSharedKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// the owner writes a record whose key file is sealed with the key
	// shared to the viewer
	ownerKeys := NewStaticKeyring(store, testSharedKey, nil)
	owner := NewAccessor(store, ownerKeys, testLogger())
	meta := &models.RecordMetadata{Id: "a", Title: "Shared Clip", Type: "videos"}
	require.NoError(t, owner.WriteRecord(ctx, "pk-owen/videos/a.index", meta, []byte("recordkey0123456789recordkey0123")))

	// the viewer resolves it through the viewer-scoped keyring entry
	viewerKeys := NewStaticKeyring(store, testMasterKey, map[string][]byte{"owen": testSharedKey})
	viewer := NewAccessor(store, viewerKeys, testLogger())

	got, err := viewer.ReadRecord(ctx, "pk-owen/videos/a.index", "owen")
	require.NoError(t, err)
	assert.Equal(t, "Shared Clip", got.Title)

	// and fails without the shared key
	_, err = viewer.ReadRecord(ctx, "pk-owen/videos/a.index", "stranger")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestShareList_AbsentIsEmpty(t *testing.T) {
	a, _ := newTestAccessor(t)

	list, err := a.ReadShareList(context.Background(), "pk/")
	require.NoError(t, err)
	assert.Empty(t, list.Entries)
}

func TestGroupIndex_RoundTrip(t *testing.T) {
	a, _ := newTestAccessor(t)
	ctx := context.Background()

	group := &models.GroupIndex{
		Id: "g1",
		Entries: []models.GroupEntry{
			{IndexFile: "videos/a.index", UserName: "owen", SortKey: "0001"},
		},
	}
	require.NoError(t, a.WriteGroupIndex(ctx, "pk/", group))

	got, err := a.ReadGroupIndex(ctx, "pk/", "g1")
	require.NoError(t, err)
	assert.Equal(t, group.Entries, got.Entries)
}
