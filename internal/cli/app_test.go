package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/infrastructure/cachestorage"
	"github.com/bnema/candyland/internal/infrastructure/config"
	"github.com/bnema/candyland/internal/infrastructure/network"
	"github.com/bnema/candyland/internal/infrastructure/persistence/jsonfile"
	"github.com/bnema/candyland/internal/infrastructure/push"
	"github.com/bnema/candyland/internal/logging"
	"github.com/bnema/candyland/internal/offline"
)

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("VAPID_PUBLIC_KEY", "")
	t.Setenv("VAPID_PRIVATE_KEY", "")
	t.Setenv("CANDYLAND_PUSH_VAPID_PUBLIC_KEY", "")
	t.Setenv("CANDYLAND_PUSH_VAPID_PRIVATE_KEY", "")
	return dir
}

func newTestApp(t *testing.T, toml string) *App {
	t.Helper()
	dir := isolateXDG(t)
	path := filepath.Join(dir, "candyland.toml")
	if toml != "" {
		require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))
	}

	app, err := NewApp(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp_CreatesDefaultConfig(t *testing.T) {
	app := newTestApp(t, "")

	assert.FileExists(t, app.Manager.GetConfigFile())
	assert.Equal(t, ":3000", app.Config.Server.Addr)
	assert.Equal(t, config.StorageDriverSQLite, app.Config.Storage.Driver)
	assert.NotNil(t, app.Theme)
}

func TestApp_VAPIDKeys_GeneratesEphemeralPairOnce(t *testing.T) {
	app := newTestApp(t, "")

	first, err := app.VAPIDKeys()
	require.NoError(t, err)
	assert.NotEmpty(t, first.PublicKey)
	assert.True(t, app.EphemeralKeys())

	second, err := app.VAPIDKeys()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestApp_VAPIDKeys_FromLegacyEnv(t *testing.T) {
	keys, err := push.GenerateKeys()
	require.NoError(t, err)

	dir := isolateXDG(t)
	t.Setenv("VAPID_PUBLIC_KEY", keys.PublicKey)
	t.Setenv("VAPID_PRIVATE_KEY", keys.PrivateKey)

	app, err := NewApp(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	defer app.Close()

	got, err := app.VAPIDKeys()
	require.NoError(t, err)
	assert.Equal(t, keys, got)
	assert.False(t, app.EphemeralKeys())

	_, err = app.PushSender()
	assert.NoError(t, err)
}

func TestApp_FileStorageDriver(t *testing.T) {
	app := newTestApp(t, "[storage]\ndriver = 'file'\n")

	repo, ok := app.Subscriptions.(*jsonfile.SubscriptionRepository)
	require.True(t, ok)
	assert.Equal(t, app.Config.Storage.SubscriptionsFile, repo.Path())

	count, err := app.SubscriptionsUC().Count(app.Ctx())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestApp_WorkerConfig(t *testing.T) {
	app := newTestApp(t, "[worker]\norigin = 'http://localhost:4000'\nversion = 'v9'\n")

	cfg := app.WorkerConfig()
	assert.Equal(t, "http://localhost:4000/", cfg.Scope)
	assert.Equal(t, "candyland-cache-v9", cfg.Names().Precache)
	assert.NoError(t, cfg.Validate())
}

func TestApp_CacheUC_SQLite(t *testing.T) {
	app := newTestApp(t, "")
	ctx := app.Ctx()

	storage, err := app.CacheStorage(ctx)
	require.NoError(t, err)
	_, err = storage.Open(ctx, "candyland-cache-v1")
	require.NoError(t, err)

	uc, err := app.CacheUC(ctx)
	require.NoError(t, err)
	generations, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, generations, 1)
	assert.False(t, generations[0].Current())
	assert.FileExists(t, app.Config.Storage.DatabasePath)
}

func TestApp_CacheStorage_Memory(t *testing.T) {
	app := newTestApp(t, "[worker]\nstorage = 'memory'\n")

	storage, err := app.CacheStorage(app.Ctx())
	require.NoError(t, err)
	assert.IsType(t, &cachestorage.Memory{}, storage)
	assert.NoFileExists(t, app.Config.Storage.DatabasePath)
}

func TestApp_Serve_StopsOnCancel(t *testing.T) {
	app := newTestApp(t, "[server]\naddr = '127.0.0.1:0'\n")
	app.Config.Server.PublicDir = t.TempDir()

	ctx, cancel := context.WithTimeout(app.Ctx(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, app.Serve(ctx))
}

func originServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("page " + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testWorkerConfig(origin, version string) offline.Config {
	return offline.Config{
		Scope:              origin + "/",
		Version:            version,
		CachePrefix:        "candyland-cache",
		DynamicCache:       "dynamic-v1",
		OfflinePage:        "./offline.html",
		Assets:             []string{"./", "./offline.html"},
		SkipWaiting:        true,
		InstallConcurrency: 2,
	}
}

func TestWorkerProxy_ApplyInstallsNewVersion(t *testing.T) {
	ctx := logging.WithContext(context.Background(), logging.NewFromConfigValues("debug", "console"))
	origin := originServer(t)
	storage := cachestorage.NewMemory()

	var onChange func(*config.Config)
	cfg := testWorkerConfig(origin.URL, "v1")
	p := &workerProxy{
		storage:  storage,
		network:  network.NewFetcher(),
		reg:      offline.NewRegistration(storage),
		scope:    cfg.Scope,
		current:  cfg,
		register: func(cb func(*config.Config)) { onChange = cb },
	}
	require.NoError(t, p.start(ctx))
	require.Equal(t, "v1", p.reg.Status().Active.Version)

	p.watch(ctx)
	require.NotNil(t, onChange)

	// Unchanged worker settings keep the running version.
	p.apply(ctx, testWorkerConfig(origin.URL, "v1"))
	assert.Equal(t, "v1", p.reg.Status().Active.Version)

	p.apply(ctx, testWorkerConfig(origin.URL, "v2"))
	assert.Equal(t, "v2", p.reg.Status().Active.Version)

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, "candyland-cache-v1")
	assert.Contains(t, keys, "candyland-cache-v2")
}

func TestWorkerProxy_ApplyIgnoresOriginChange(t *testing.T) {
	ctx := context.Background()
	origin := originServer(t)
	storage := cachestorage.NewMemory()

	cfg := testWorkerConfig(origin.URL, "v1")
	p := &workerProxy{
		storage: storage,
		network: network.NewFetcher(),
		reg:     offline.NewRegistration(storage),
		scope:   cfg.Scope,
		current: cfg,
	}
	require.NoError(t, p.start(ctx))

	p.apply(ctx, testWorkerConfig("http://elsewhere.test", "v2"))
	assert.Equal(t, "v1", p.reg.Status().Active.Version)
}

func TestSameWorker(t *testing.T) {
	base := testWorkerConfig("http://localhost:3000", "v1")
	assert.True(t, sameWorker(base, testWorkerConfig("http://localhost:3000", "v1")))

	tests := []struct {
		name   string
		change func(*offline.Config)
	}{
		{"assets", func(c *offline.Config) { c.Assets = append(c.Assets, "./app.js") }},
		{"skip waiting", func(c *offline.Config) { c.SkipWaiting = false }},
		{"fetch timeout", func(c *offline.Config) { c.FetchTimeout = time.Second }},
		{"install concurrency", func(c *offline.Config) { c.InstallConcurrency = 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := testWorkerConfig("http://localhost:3000", "v1")
			tt.change(&next)
			assert.False(t, sameWorker(base, next))
		})
	}
}

func TestWorkerProxy_ApplyPicksUpSettingsWithoutVersionBump(t *testing.T) {
	ctx := context.Background()
	origin := originServer(t)
	storage := cachestorage.NewMemory()

	cfg := testWorkerConfig(origin.URL, "v1")
	p := &workerProxy{
		storage: storage,
		network: network.NewFetcher(),
		reg:     offline.NewRegistration(storage),
		scope:   cfg.Scope,
		current: cfg,
	}
	require.NoError(t, p.start(ctx))
	first := p.reg.Active()

	next := testWorkerConfig(origin.URL, "v1")
	next.FetchTimeout = 5 * time.Second
	p.apply(ctx, next)

	active := p.reg.Active()
	require.NotNil(t, active)
	assert.NotSame(t, first, active)
	assert.Equal(t, 5*time.Second, active.Config().FetchTimeout)
	assert.Equal(t, "v1", p.reg.Status().Active.Version)
}
