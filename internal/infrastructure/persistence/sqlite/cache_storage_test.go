package sqlite_test

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/infrastructure/persistence/sqlite"
)

func TestCacheStorage_GenerationLifecycle(t *testing.T) {
	ctx := testCtx()
	storage := sqlite.NewCacheStorage(openTestDB(t))

	for _, name := range []string{"candyland-cache-v4", "dynamic-v1", "candyland-cache-v5"} {
		_, err := storage.Open(ctx, name)
		require.NoError(t, err)
	}
	// Reopening does not reorder.
	_, err := storage.Open(ctx, "candyland-cache-v4")
	require.NoError(t, err)

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"candyland-cache-v4", "dynamic-v1", "candyland-cache-v5"}, keys)

	has, err := storage.Has(ctx, "dynamic-v1")
	require.NoError(t, err)
	assert.True(t, has)

	deleted, err := storage.Delete(ctx, "candyland-cache-v4")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = storage.Delete(ctx, "candyland-cache-v4")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = storage.Open(ctx, "")
	assert.Error(t, err)
}

func TestCacheStorage_PutMatchDelete(t *testing.T) {
	ctx := testCtx()
	storage := sqlite.NewCacheStorage(openTestDB(t))
	c, err := storage.Open(ctx, "dynamic-v1")
	require.NoError(t, err)

	req := entity.NewRequest(http.MethodGet, "http://app.test/img/star.png#frag")
	miss, err := c.Match(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Put(ctx, req, &entity.Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"image/png"}},
		Body:   []byte{0x89, 'P', 'N', 'G'},
	}))

	got, err := c.Match(ctx, entity.NewRequest("get", "http://app.test/img/star.png"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "image/png", got.Header.Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.Body)
	assert.False(t, got.StoredAt.IsZero())

	require.NoError(t, c.Put(ctx, req, &entity.Response{Status: http.StatusOK, Body: []byte("v2")}))
	got, err = c.Match(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got.Body))

	keys, err := c.Requests(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GET http://app.test/img/star.png"}, keys)

	ok, err := c.Delete(ctx, req)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.Delete(ctx, req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStorage_PutAllIsAtomic(t *testing.T) {
	ctx := testCtx()
	storage := sqlite.NewCacheStorage(openTestDB(t))
	c, err := storage.Open(ctx, "candyland-cache-v5")
	require.NoError(t, err)

	records := []port.CacheRecord{
		{Request: entity.NewRequest(http.MethodGet, "http://app.test/"), Response: &entity.Response{Status: 200, Body: []byte("root")}},
		{Request: entity.NewRequest(http.MethodGet, "http://app.test/app.js"), Response: nil},
	}
	require.Error(t, c.PutAll(ctx, records))

	keys, err := c.Requests(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	records[1].Response = &entity.Response{Status: 200, Body: []byte("js")}
	require.NoError(t, c.PutAll(ctx, records))

	keys, err = c.Requests(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestCacheStorage_DeleteCascadesAndSurvivesReopen(t *testing.T) {
	ctx := testCtx()
	dbPath := filepath.Join(t.TempDir(), "candyland.db")

	db, err := sqlite.NewConnection(ctx, dbPath)
	require.NoError(t, err)
	storage := sqlite.NewCacheStorage(db)

	old, err := storage.Open(ctx, "candyland-cache-v4")
	require.NoError(t, err)
	require.NoError(t, old.Put(ctx, entity.NewRequest(http.MethodGet, "http://app.test/"), &entity.Response{Status: 200, Body: []byte("old")}))
	cur, err := storage.Open(ctx, "candyland-cache-v5")
	require.NoError(t, err)
	require.NoError(t, cur.Put(ctx, entity.NewRequest(http.MethodGet, "http://app.test/"), &entity.Response{Status: 200, Body: []byte("new")}))

	_, err = storage.Delete(ctx, "candyland-cache-v4")
	require.NoError(t, err)

	stats, err := storage.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.GenerationUsage{Entries: 1, Bytes: 3}, stats["candyland-cache-v5"])
	_, present := stats["candyland-cache-v4"]
	assert.False(t, present)
	require.NoError(t, db.Close())

	db, err = sqlite.NewConnection(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	storage = sqlite.NewCacheStorage(db)

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"candyland-cache-v5"}, keys)

	cur, err = storage.Open(ctx, "candyland-cache-v5")
	require.NoError(t, err)
	got, err := cur.Match(ctx, entity.NewRequest(http.MethodGet, "http://app.test/"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", string(got.Body))
}

func TestCacheStorage_PutAllReplacesAndKeepsStoredAt(t *testing.T) {
	ctx := testCtx()
	storage := sqlite.NewCacheStorage(openTestDB(t))
	c, err := storage.Open(ctx, "candyland-cache-v5")
	require.NoError(t, err)

	storedAt := time.UnixMilli(1_700_000_000_000)
	root := entity.NewRequest(http.MethodGet, "http://app.test/")
	require.NoError(t, c.Put(ctx, root, &entity.Response{Status: 200, Body: []byte("first")}))

	require.NoError(t, c.PutAll(ctx, []port.CacheRecord{
		{Request: root, Response: &entity.Response{
			Status:   200,
			Header:   http.Header{"Vary": []string{"Accept", "Accept-Encoding"}},
			Body:     []byte("second"),
			StoredAt: storedAt,
		}},
		{Request: entity.NewRequest(http.MethodGet, "http://app.test/offline.html"), Response: &entity.Response{Status: 200}},
	}))

	got, err := c.Match(ctx, root)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", string(got.Body))
	assert.Equal(t, []string{"Accept", "Accept-Encoding"}, got.Header.Values("Vary"))
	assert.True(t, storedAt.Equal(got.StoredAt))

	keys, err := c.Requests(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GET http://app.test/", "GET http://app.test/offline.html"}, keys)

	empty, err := c.Match(ctx, entity.NewRequest(http.MethodGet, "http://app.test/offline.html"))
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Empty(t, empty.Body)
	assert.NotNil(t, empty.Header)
}
