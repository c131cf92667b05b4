// Package cli wires configuration, storage and use cases for the CLI commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/application/usecase"
	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/domain/build"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/domain/repository"
	"github.com/bnema/candyland/internal/infrastructure/cachestorage"
	"github.com/bnema/candyland/internal/infrastructure/config"
	"github.com/bnema/candyland/internal/infrastructure/persistence/jsonfile"
	"github.com/bnema/candyland/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/candyland/internal/infrastructure/push"
	"github.com/bnema/candyland/internal/logging"
	"github.com/bnema/candyland/internal/offline"
)

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	Manager   *config.Manager
	Theme     *styles.Theme
	BuildInfo build.Info
	Logger    zerolog.Logger

	Subscriptions repository.SubscriptionRepository

	db      *sqlite.LazyDB
	logFile *logging.FileSink
	ctx     context.Context

	keys          port.VAPIDKeys
	keysGenerated bool
}

// NewApp loads configuration from configFile (the XDG config file when empty)
// and builds the logger and storage providers. Nothing touches the database
// until a command asks for it.
func NewApp(configFile string) (*App, error) {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(); err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	var (
		logFile *logging.FileSink
		file    io.Writer
	)
	if cfg.Logging.EnableFileLog {
		l := cfg.Logging
		logFile, err = logging.OpenFileSink(logging.FileSinkOptions{
			Dir:        l.LogDir,
			MaxSize:    int64(l.MaxSizeMB) << 20,
			MaxBackups: l.MaxBackups,
			MaxAge:     time.Duration(l.MaxAgeDays) * 24 * time.Hour,
			Compress:   l.Compress,
		})
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = logFile
	}
	logger := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.Format, file)
	ctx := logging.WithContext(context.Background(), logger)

	app := &App{
		Config:  cfg,
		Manager: mgr,
		Theme:   styles.NewTheme(),
		Logger:  logger,
		db:      sqlite.NewLazyDB(cfg.Storage.DatabasePath),
		logFile: logFile,
		ctx:     ctx,
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		app.Subscriptions = jsonfile.NewSubscriptionRepository(cfg.Storage.SubscriptionsFile)
	default:
		app.Subscriptions = sqlite.NewLazySubscriptionRepository(app.db)
	}

	logger.Debug().
		Str("config", mgr.GetConfigFile()).
		Str("storage", string(cfg.Storage.Driver)).
		Msg("cli initialized")
	return app, nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// Close releases all resources.
func (a *App) Close() error {
	var firstErr error
	if a.db != nil {
		firstErr = a.db.Close()
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// VAPIDKeys returns the configured key pair. Without one, an ephemeral pair
// is generated once per process and subscriptions made against it will not
// survive a restart.
func (a *App) VAPIDKeys() (port.VAPIDKeys, error) {
	if a.keys.PublicKey != "" {
		return a.keys, nil
	}
	if a.Config.Push.VAPIDPublicKey != "" {
		a.keys = port.VAPIDKeys{
			PublicKey:  a.Config.Push.VAPIDPublicKey,
			PrivateKey: a.Config.Push.VAPIDPrivateKey,
		}
		return a.keys, nil
	}

	keys, err := push.GenerateKeys()
	if err != nil {
		return port.VAPIDKeys{}, err
	}
	a.Logger.Warn().Msg("no VAPID keys configured, generated an ephemeral pair; run 'candyland vapid' and store the keys in the config file")
	a.keys = keys
	a.keysGenerated = true
	return keys, nil
}

// EphemeralKeys reports whether VAPIDKeys generated the key pair.
func (a *App) EphemeralKeys() bool {
	return a.keysGenerated
}

// PushSender builds the Web Push sender from the push section.
func (a *App) PushSender() (*push.Sender, error) {
	keys, err := a.VAPIDKeys()
	if err != nil {
		return nil, err
	}
	p := a.Config.Push
	return push.NewSender(push.Config{
		Keys:       keys,
		Subscriber: p.Subscriber,
		TTL:        p.TTL,
		Urgency:    string(p.Urgency),
		HTTPClient: &http.Client{Timeout: p.Timeout},
	})
}

// SubscriptionsUC returns the subscription management use case.
func (a *App) SubscriptionsUC() *usecase.ManageSubscriptionsUseCase {
	return usecase.NewManageSubscriptionsUseCase(a.Subscriptions)
}

// NotificationsUC returns the broadcast use case backed by the push sender.
func (a *App) NotificationsUC() (*usecase.SendNotificationUseCase, error) {
	sender, err := a.PushSender()
	if err != nil {
		return nil, err
	}
	return usecase.NewSendNotificationUseCase(a.Subscriptions, sender), nil
}

// Reminder returns the notification a scheduled reminder sends.
func (a *App) Reminder() entity.Notification {
	r := a.Config.Reminder
	return entity.Notification{Title: r.Title, Message: r.Message, URL: r.URL}
}

// WorkerConfig maps the worker section onto an offline worker configuration.
func (a *App) WorkerConfig() offline.Config {
	return workerConfig(a.Config.Worker)
}

func workerConfig(w config.WorkerConfig) offline.Config {
	return offline.Config{
		Scope:              w.Origin,
		Version:            w.Version,
		CachePrefix:        w.CachePrefix,
		DynamicCache:       w.DynamicCache,
		OfflinePage:        w.OfflinePage,
		Assets:             entity.Manifest(w.Assets),
		SkipWaiting:        w.SkipWaiting,
		FetchTimeout:       w.FetchTimeout,
		InstallConcurrency: w.InstallConcurrency,
	}
}

// CacheStorage opens the configured cache storage backend.
func (a *App) CacheStorage(ctx context.Context) (port.CacheStorage, error) {
	w := a.Config.Worker
	if w.Storage == config.CacheDriverMemory {
		return cachestorage.NewMemory(cachestorage.WithCapacity(w.DynamicCache, w.DynamicCapacity)), nil
	}
	db, err := a.db.DB(ctx)
	if err != nil {
		return nil, err
	}
	return sqlite.NewCacheStorage(db), nil
}

// CacheUC returns the cache maintenance use case over the configured storage.
func (a *App) CacheUC(ctx context.Context) (*usecase.ManageCacheUseCase, error) {
	storage, err := a.CacheStorage(ctx)
	if err != nil {
		return nil, err
	}
	return usecase.NewManageCacheUseCase(storage, a.WorkerConfig().Names()), nil
}
