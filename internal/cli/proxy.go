package cli

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/bnema/candyland/internal/api"
	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/infrastructure/clients"
	"github.com/bnema/candyland/internal/infrastructure/config"
	"github.com/bnema/candyland/internal/infrastructure/network"
	"github.com/bnema/candyland/internal/logging"
	"github.com/bnema/candyland/internal/offline"
)

// ProxyOptions configure the offline proxy.
type ProxyOptions struct {
	// Watch installs a new worker version when the worker section of the
	// config file changes.
	Watch bool
}

// Proxy serves the configured origin through the offline worker until ctx is
// cancelled. A failed first install is logged and the proxy passes requests
// through until a later version installs.
func (a *App) Proxy(ctx context.Context, opts ProxyOptions) error {
	ctx = logging.WithComponent(ctx, "proxy")
	log := logging.FromContext(ctx)

	storage, err := a.CacheStorage(ctx)
	if err != nil {
		return err
	}
	w := a.Config.Worker
	registry := clients.NewRegistry(
		clients.WithIdleTTL(w.ClientIdleTTL),
		clients.WithLauncher(clients.NewXDGLauncher()),
	)
	fetcher := network.NewFetcher(network.WithUserAgent("candyland/" + a.BuildInfo.Version))

	p := &workerProxy{
		storage:  storage,
		network:  fetcher,
		clients:  registry,
		reg:      offline.NewRegistration(storage),
		current:  workerConfig(w),
		scope:    w.Origin,
		register: a.Manager.OnConfigChange,
	}

	if err := p.start(ctx); err != nil {
		if p.reg.Active() == nil {
			log.Error().Err(err).Msg("offline worker did not install, passing requests through to the origin")
		} else {
			log.Warn().Err(err).Msg("offline worker started on a fallback version")
		}
	}

	if opts.Watch {
		p.watch(ctx)
		if err := a.Manager.Watch(); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
	}

	handler, err := offline.NewHandler(p.reg, w.Origin, registry)
	if err != nil {
		return err
	}
	e := api.NewEcho(a.Logger)
	e.Any("/*", echo.WrapHandler(handler))

	log.Info().Str("origin", w.Origin).Str("listen", w.Listen).Msg("starting offline proxy")
	return api.Run(ctx, e, w.Listen)
}

// workerProxy owns the registration and replaces its worker on config changes.
type workerProxy struct {
	storage  port.CacheStorage
	network  port.Fetcher
	clients  port.WindowClients
	reg      *offline.Registration
	scope    string
	register func(func(*config.Config))

	mu      sync.Mutex
	current offline.Config
}

func (p *workerProxy) newWorker(cfg offline.Config) (*offline.Worker, error) {
	return offline.NewWorker(cfg, offline.Deps{Storage: p.storage, Network: p.network, Clients: p.clients})
}

func (p *workerProxy) start(ctx context.Context) error {
	w, err := p.newWorker(p.current)
	if err != nil {
		return err
	}
	return p.reg.Start(ctx, w)
}

func (p *workerProxy) watch(ctx context.Context) {
	p.register(func(cfg *config.Config) {
		p.apply(ctx, workerConfig(cfg.Worker))
	})
}

// apply installs next when any worker setting differs from the running one.
// Settings are fixed per worker, so a same-version change reinstalls the
// current generation.
func (p *workerProxy) apply(ctx context.Context, next offline.Config) {
	log := logging.FromContext(ctx)

	p.mu.Lock()
	if sameWorker(p.current, next) {
		p.mu.Unlock()
		return
	}
	if next.Scope != p.scope {
		p.mu.Unlock()
		log.Warn().Str("origin", next.Scope).Msg("worker.origin changed, restart the proxy to apply it")
		return
	}
	p.current = next
	p.mu.Unlock()

	w, err := p.newWorker(next)
	if err != nil {
		log.Error().Err(err).Msg("invalid worker configuration")
		return
	}
	if err := p.reg.Update(ctx, w); err != nil {
		log.Error().Err(err).Str("version", next.Version).Msg("worker update failed, previous version keeps serving")
		return
	}
	log.Info().Str("version", next.Version).Msg("worker updated from config")
}

func sameWorker(a, b offline.Config) bool {
	return a.Scope == b.Scope &&
		a.Version == b.Version &&
		a.CachePrefix == b.CachePrefix &&
		a.DynamicCache == b.DynamicCache &&
		a.OfflinePage == b.OfflinePage &&
		a.SkipWaiting == b.SkipWaiting &&
		a.FetchTimeout == b.FetchTimeout &&
		a.InstallConcurrency == b.InstallConcurrency &&
		slices.Equal(a.Assets, b.Assets)
}
