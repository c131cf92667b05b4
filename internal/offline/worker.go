// Package offline implements the offline cache worker: a versioned precache of the
// app shell, a runtime-populated dynamic cache, cache-first request interception
// with an offline fallback page, and the install/activate lifecycle that moves
// between versions.
package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

// Deps are the collaborators a worker needs.
type Deps struct {
	Storage port.CacheStorage
	Network port.Fetcher
	Clients port.WindowClients // optional
}

// FetchResult is an intercepted response and where it came from.
type FetchResult struct {
	Response *entity.Response
	Source   entity.FetchSource
}

// Worker is one version of the offline cache worker.
// Fetch may be called concurrently; lifecycle transitions are serialized.
type Worker struct {
	cfg   Config
	names entity.CacheNames
	deps  Deps

	mu    sync.RWMutex
	state entity.WorkerState
}

// NewWorker creates a worker in the parsed state.
func NewWorker(cfg Config, deps Deps) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Storage == nil || deps.Network == nil {
		return nil, fmt.Errorf("offline worker requires cache storage and network")
	}
	if cfg.InstallConcurrency <= 0 {
		cfg.InstallConcurrency = defaultInstallConcurrency
	}
	return &Worker{
		cfg:   cfg,
		names: cfg.Names(),
		deps:  deps,
		state: entity.WorkerParsed,
	}, nil
}

// withVersion returns a parsed worker sharing configuration and collaborators but
// bound to another precache version.
func (w *Worker) withVersion(version string) *Worker {
	cfg := w.cfg
	cfg.Version = version
	return &Worker{
		cfg:   cfg,
		names: cfg.Names(),
		deps:  w.deps,
		state: entity.WorkerParsed,
	}
}

// Version returns the worker version tag.
func (w *Worker) Version() string { return w.cfg.Version }

// Names returns the current generation names.
func (w *Worker) Names() entity.CacheNames { return w.names }

// Config returns the worker configuration.
func (w *Worker) Config() Config { return w.cfg }

// State returns the lifecycle state.
func (w *Worker) State() entity.WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s entity.WorkerState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) transition(from, to entity.WorkerState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return fmt.Errorf("%w: %s -> %s (worker is %s)", ErrInvalidState, from, to, w.state)
	}
	w.state = to
	return nil
}

func (w *Worker) logContext(ctx context.Context) context.Context {
	ctx = logging.WithComponent(ctx, "offline-worker")
	return logging.With(ctx, map[string]any{"version": w.cfg.Version})
}

// Install fetches every manifest asset and commits them into a fresh precache
// generation. The commit is all-or-nothing: if any asset cannot be fetched, or
// answers with a non-2xx status, nothing is stored and the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition(entity.WorkerParsed, entity.WorkerInstalling); err != nil {
		return err
	}
	ctx = w.logContext(ctx)
	log := logging.FromContext(ctx)
	log.Info().Str("cache", w.names.Precache).Int("assets", len(w.cfg.Assets)).Msg("installing")

	existed, err := w.deps.Storage.Has(ctx, w.names.Precache)
	if err != nil {
		return w.failInstall(ctx, &InstallError{Version: w.cfg.Version, Err: err})
	}

	records := make([]port.CacheRecord, len(w.cfg.Assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.InstallConcurrency)

	for i, asset := range w.cfg.Assets {
		g.Go(func() error {
			req := entity.NewRequest(http.MethodGet, w.cfg.resolve(asset))
			resp, fetchErr := w.deps.Network.Fetch(gctx, req)
			if fetchErr != nil {
				return &InstallError{Version: w.cfg.Version, Asset: asset, Err: fetchErr}
			}
			if !resp.OK() {
				return &InstallError{
					Version: w.cfg.Version,
					Asset:   asset,
					Err:     fmt.Errorf("unexpected status %d", resp.Status),
				}
			}
			records[i] = port.CacheRecord{Request: req, Response: resp}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return w.failInstall(ctx, err)
	}

	precache, err := w.deps.Storage.Open(ctx, w.names.Precache)
	if err != nil {
		return w.failInstall(ctx, &InstallError{Version: w.cfg.Version, Err: err})
	}
	if err := precache.PutAll(ctx, records); err != nil {
		if !existed {
			if _, delErr := w.deps.Storage.Delete(ctx, w.names.Precache); delErr != nil {
				log.Warn().Err(delErr).Msg("failed to drop incomplete precache generation")
			}
		}
		return w.failInstall(ctx, &InstallError{Version: w.cfg.Version, Err: fmt.Errorf("commit precache: %w", err)})
	}

	w.setState(entity.WorkerInstalled)
	log.Info().Str("cache", w.names.Precache).Msg("installed")
	return nil
}

func (w *Worker) failInstall(ctx context.Context, err error) error {
	w.setState(entity.WorkerRedundant)
	var installErr *InstallError
	if !errors.As(err, &installErr) {
		err = &InstallError{Version: w.cfg.Version, Err: err}
	}
	logging.FromContext(ctx).Error().Err(err).Msg("install failed")
	return err
}

// Activate deletes every cache generation that is neither the current precache
// nor the dynamic cache, then claims all open clients. The worker ends up
// activated even if some deletions fail; those failures are returned joined.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	if err := w.transition(entity.WorkerInstalled, entity.WorkerActivating); err != nil {
		return nil, err
	}
	ctx = w.logContext(ctx)
	log := logging.FromContext(ctx)

	var errs []error
	var deleted []string

	names, err := w.deps.Storage.Keys(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list cache generations: %w", err))
	}
	for _, name := range names {
		if w.names.IsCurrent(name) {
			continue
		}
		ok, delErr := w.deps.Storage.Delete(ctx, name)
		if delErr != nil {
			errs = append(errs, fmt.Errorf("delete cache %s: %w", name, delErr))
			continue
		}
		if ok {
			deleted = append(deleted, name)
			log.Info().Str("cache", name).Msg("deleted stale cache generation")
		}
	}

	if _, err := w.deps.Storage.Open(ctx, w.names.Dynamic); err != nil {
		errs = append(errs, fmt.Errorf("open dynamic cache: %w", err))
	}

	if w.deps.Clients != nil {
		if err := w.deps.Clients.Claim(ctx, w.cfg.Version); err != nil {
			log.Warn().Err(err).Msg("failed to claim clients")
		}
	}

	w.setState(entity.WorkerActivated)
	log.Info().Int("deleted", len(deleted)).Msg("activated")
	return deleted, errors.Join(errs...)
}

// Intercepts reports whether the worker handles requests with this method.
// Only GET is intercepted; anything else must go to the network untouched.
func Intercepts(method string) bool {
	return strings.EqualFold(method, http.MethodGet)
}

// Fetch answers one intercepted request: precache, then dynamic cache, then
// network. Network responses are cloned into the dynamic cache. When the network
// fails, HTML requests get the precached offline page; anything else gets a
// *FetchError.
func (w *Worker) Fetch(ctx context.Context, req *entity.Request) (*FetchResult, error) {
	if !req.IsGet() {
		return nil, ErrNotIntercepted
	}
	if w.State() != entity.WorkerActivated {
		return nil, ErrNotActive
	}

	ctx = logging.WithURL(w.logContext(ctx), req.URL)
	log := logging.FromContext(ctx)

	if resp, source := w.lookup(ctx, req); resp != nil {
		log.Debug().Str("source", string(source)).Msg("served from cache")
		return &FetchResult{Response: resp, Source: source}, nil
	}

	netCtx := ctx
	if w.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		netCtx, cancel = context.WithTimeout(ctx, w.cfg.FetchTimeout)
		defer cancel()
	}

	resp, err := w.deps.Network.Fetch(netCtx, req)
	if err != nil {
		return w.fallback(ctx, req, err)
	}

	// The dynamic cache answers every client behind the proxy.
	if req.HasCredentials() || !resp.Shared() {
		log.Debug().Int("status", resp.Status).Msg("response is user-specific, not caching")
	} else {
		w.storeDynamic(ctx, req, resp.Clone())
	}
	return &FetchResult{Response: resp, Source: entity.SourceNetwork}, nil
}

// lookup checks the current precache first and the dynamic cache second, so
// runtime-fetched copies can never shadow precached assets.
func (w *Worker) lookup(ctx context.Context, req *entity.Request) (*entity.Response, entity.FetchSource) {
	log := logging.FromContext(ctx)

	order := []struct {
		name   string
		source entity.FetchSource
	}{
		{w.names.Precache, entity.SourcePrecache},
		{w.names.Dynamic, entity.SourceDynamic},
	}

	for _, gen := range order {
		c, err := w.existing(ctx, gen.name)
		if err != nil {
			log.Warn().Err(err).Str("cache", gen.name).Msg("failed to open cache generation")
			continue
		}
		if c == nil {
			continue
		}
		resp, err := c.Match(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("cache", gen.name).Msg("cache lookup failed")
			continue
		}
		if resp != nil {
			return resp, gen.source
		}
	}
	return nil, ""
}

func (w *Worker) storeDynamic(ctx context.Context, req *entity.Request, resp *entity.Response) {
	log := logging.FromContext(ctx)

	c, err := w.deps.Storage.Open(ctx, w.names.Dynamic)
	if err != nil {
		log.Warn().Err(err).Msg("failed to open dynamic cache")
		return
	}
	if err := c.Put(ctx, req, resp); err != nil {
		log.Warn().Err(err).Msg("failed to store response in dynamic cache")
		return
	}
	log.Debug().Int("status", resp.Status).Msg("stored in dynamic cache")
}

func (w *Worker) fallback(ctx context.Context, req *entity.Request, cause error) (*FetchResult, error) {
	log := logging.FromContext(ctx)

	if req.AcceptsHTML() && w.cfg.OfflinePage != "" {
		page, err := w.offlinePage(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to read offline page")
		}
		if page != nil {
			log.Info().Err(cause).Msg("network unavailable, serving offline page")
			return &FetchResult{Response: page, Source: entity.SourceOffline}, nil
		}
	}

	log.Debug().Err(cause).Msg("network unavailable, no fallback")
	return nil, &FetchError{URL: req.URL, Err: cause}
}

func (w *Worker) offlinePage(ctx context.Context) (*entity.Response, error) {
	c, err := w.existing(ctx, w.names.Precache)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Match(ctx, entity.NewRequest(http.MethodGet, w.cfg.resolve(w.cfg.OfflinePage)))
}

// existing opens a generation only if it is already stored. Reads must not
// recreate a purged generation, or a later start would adopt it empty.
func (w *Worker) existing(ctx context.Context, name string) (port.ResponseCache, error) {
	ok, err := w.deps.Storage.Has(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	return w.deps.Storage.Open(ctx, name)
}

// precacheComplete reports whether every manifest asset is stored in this
// version's precache generation.
func (w *Worker) precacheComplete(ctx context.Context) (bool, error) {
	c, err := w.existing(ctx, w.names.Precache)
	if err != nil || c == nil {
		return false, err
	}
	for _, asset := range w.cfg.Assets {
		resp, err := c.Match(ctx, entity.NewRequest(http.MethodGet, w.cfg.resolve(asset)))
		if err != nil {
			return false, err
		}
		if resp == nil {
			return false, nil
		}
	}
	return true, nil
}

// precacheServesOffline reports whether this version's precache generation is
// stored, non-empty and holds the offline page. Older versions may list other
// assets, so this is the bar for falling back to one.
func (w *Worker) precacheServesOffline(ctx context.Context) (bool, error) {
	c, err := w.existing(ctx, w.names.Precache)
	if err != nil || c == nil {
		return false, err
	}
	keys, err := c.Requests(ctx)
	if err != nil || len(keys) == 0 {
		return false, err
	}
	if w.cfg.OfflinePage == "" {
		return true, nil
	}
	page, err := w.offlinePage(ctx)
	return page != nil, err
}
