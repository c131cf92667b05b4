package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/candyland/internal/logging"
)

func testCtx() context.Context {
	logger := logging.NewFromConfigValues("debug", "console")
	return logging.WithContext(context.Background(), logger)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewConnection(testCtx(), filepath.Join(t.TempDir(), "candyland.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLazyDB_NotInitializedByDefault(t *testing.T) {
	lazy := sqlite.NewLazyDB(filepath.Join(t.TempDir(), "test.db"))
	assert.False(t, lazy.IsInitialized())
	assert.NoError(t, lazy.Close())
}

func TestLazyDB_InitializesOnceUnderConcurrency(t *testing.T) {
	ctx := testCtx()
	lazy := sqlite.NewLazyDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = lazy.Close() })

	const goroutines = 10
	dbs := make([]*sql.DB, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dbs[i], errs[i] = lazy.DB(ctx)
		}()
	}
	wg.Wait()

	for i := range goroutines {
		require.NoError(t, errs[i])
		assert.Same(t, dbs[0], dbs[i])
	}
	assert.True(t, lazy.IsInitialized())
}

func TestLazyDB_InitFailureIsSticky(t *testing.T) {
	lazy := sqlite.NewLazyDB("")

	_, err := lazy.DB(testCtx())
	require.Error(t, err)
	_, err = lazy.DB(testCtx())
	assert.ErrorContains(t, err, "database initialization failed")
	assert.False(t, lazy.IsInitialized())
}

func TestLazySubscriptionRepository(t *testing.T) {
	ctx := testCtx()
	lazy := sqlite.NewLazyDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = lazy.Close() })

	repo := sqlite.NewLazySubscriptionRepository(lazy)
	assert.False(t, lazy.IsInitialized())

	require.NoError(t, repo.Append(ctx, &entity.Subscription{Endpoint: "https://push.test/1"}))
	assert.True(t, lazy.IsInitialized())

	subs, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	removed, err := repo.RemoveByEndpoint(ctx, "https://push.test/1")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestMigrations_AreIdempotent(t *testing.T) {
	ctx := testCtx()
	db := openTestDB(t)

	require.NoError(t, sqlite.RunMigrations(ctx, db))
	version, err := sqlite.GetMigrationStatus(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestNewConnection_InMemory(t *testing.T) {
	db, err := sqlite.NewConnection(testCtx(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlite.NewSubscriptionRepository(db)
	require.NoError(t, repo.Append(testCtx(), &entity.Subscription{Endpoint: "https://push.test/mem"}))
	subs, err := repo.GetAll(testCtx())
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}
