package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

// Registration tracks the installing, waiting and active worker versions for one
// scope. Requests are always answered by the active version.
type Registration struct {
	storage port.CacheStorage

	mu         sync.RWMutex
	installing *Worker
	waiting    *Worker
	active     *Worker
}

// NewRegistration creates an empty registration over storage.
func NewRegistration(storage port.CacheStorage) *Registration {
	return &Registration{storage: storage}
}

// WorkerStatus describes one worker version.
type WorkerStatus struct {
	Version  string `json:"version"`
	State    string `json:"state"`
	Precache string `json:"precache"`
	Dynamic  string `json:"dynamic"`
}

// Status is a snapshot of the registration.
type Status struct {
	Active     *WorkerStatus `json:"active,omitempty"`
	Waiting    *WorkerStatus `json:"waiting,omitempty"`
	Installing *WorkerStatus `json:"installing,omitempty"`
}

func statusOf(w *Worker) *WorkerStatus {
	if w == nil {
		return nil
	}
	return &WorkerStatus{
		Version:  w.Version(),
		State:    w.State().String(),
		Precache: w.names.Precache,
		Dynamic:  w.names.Dynamic,
	}
}

// Status returns the current registration snapshot.
func (r *Registration) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		Active:     statusOf(r.active),
		Waiting:    statusOf(r.waiting),
		Installing: statusOf(r.installing),
	}
}

// Active returns the active worker, or nil.
func (r *Registration) Active() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Waiting returns the installed worker waiting to take over, or nil.
func (r *Registration) Waiting() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting
}

// Update installs w. If the install fails, w is discarded and the previously
// active worker keeps serving. On success w activates at once when SkipWaiting
// is set or no version is active yet; otherwise it waits for ActivateWaiting.
func (r *Registration) Update(ctx context.Context, w *Worker) error {
	log := logging.FromContext(ctx)

	r.mu.Lock()
	if r.installing != nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: version %s is still installing", ErrInvalidState, r.installing.Version())
	}
	r.installing = w
	r.mu.Unlock()

	err := w.Install(ctx)

	r.mu.Lock()
	r.installing = nil
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if r.waiting != nil {
		r.waiting.setState(entity.WorkerRedundant)
	}
	r.waiting = w
	controlled := r.active != nil
	r.mu.Unlock()

	// Without an active version nothing controls the scope, so there is
	// nobody to wait for.
	if !w.cfg.SkipWaiting && controlled {
		log.Info().Str("version", w.Version()).Msg("installed version waiting for activation")
		return nil
	}
	return r.ActivateWaiting(ctx)
}

// ActivateWaiting promotes the waiting worker to active and retires the previous one.
func (r *Registration) ActivateWaiting(ctx context.Context) error {
	r.mu.Lock()
	w := r.waiting
	if w == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: no waiting worker", ErrInvalidState)
	}
	r.waiting = nil
	previous := r.active
	r.mu.Unlock()

	deleted, err := w.Activate(ctx)
	if errors.Is(err, ErrInvalidState) {
		return err
	}

	r.mu.Lock()
	r.active = w
	r.mu.Unlock()

	if previous != nil && previous != w {
		previous.setState(entity.WorkerRedundant)
	}

	log := logging.FromContext(ctx)
	log.Info().Str("version", w.Version()).Strs("deleted", deleted).Msg("worker version active")
	if err != nil {
		log.Warn().Err(err).Msg("activation cleanup incomplete")
	}
	return nil
}

// Start brings up the registration at process start. A version whose precache
// generation holds every manifest asset is adopted without refetching. Otherwise
// it is installed; if that fails and an older precache generation holding the
// offline page survives, a worker for that version is adopted so requests are
// still answered offline. The install error is returned in that case too.
func (r *Registration) Start(ctx context.Context, w *Worker) error {
	log := logging.FromContext(ctx)

	complete, err := w.precacheComplete(ctx)
	if err != nil {
		return fmt.Errorf("check precache generation: %w", err)
	}
	if complete {
		log.Info().Str("version", w.Version()).Msg("precache present, adopting worker version")
		return r.adopt(ctx, w)
	}
	if exists, _ := r.storage.Has(ctx, w.names.Precache); exists {
		log.Warn().Str("version", w.Version()).Msg("precache generation incomplete, reinstalling")
	}

	installErr := r.Update(ctx, w)
	if installErr == nil {
		return nil
	}
	if r.Active() != nil {
		return installErr
	}

	previous, err := r.previousVersion(ctx, w)
	if err != nil {
		return errors.Join(installErr, err)
	}
	if previous == nil {
		return installErr
	}

	log.Warn().
		Str("failed_version", w.Version()).
		Str("version", previous.Version()).
		Msg("install failed, falling back to previous precache generation")
	if err := r.adopt(ctx, previous); err != nil {
		return errors.Join(installErr, err)
	}
	return installErr
}

func (r *Registration) adopt(ctx context.Context, w *Worker) error {
	if err := w.transition(entity.WorkerParsed, entity.WorkerInstalled); err != nil {
		return err
	}
	r.mu.Lock()
	r.waiting = w
	r.mu.Unlock()
	return r.ActivateWaiting(ctx)
}

// previousVersion returns a worker for the most recently created precache
// generation other than w's that can still serve offline, or nil when none survives.
func (r *Registration) previousVersion(ctx context.Context, w *Worker) (*Worker, error) {
	names, err := r.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cache generations: %w", err)
	}
	for i := len(names) - 1; i >= 0; i-- {
		version, ok := entity.PrecacheVersion(w.cfg.CachePrefix, names[i])
		if !ok || version == w.Version() {
			continue
		}
		candidate := w.withVersion(version)
		usable, err := candidate.precacheServesOffline(ctx)
		if err != nil {
			return nil, err
		}
		if usable {
			return candidate, nil
		}
	}
	return nil, nil
}

// Fetch answers req with the active worker.
func (r *Registration) Fetch(ctx context.Context, req *entity.Request) (*FetchResult, error) {
	w := r.Active()
	if w == nil {
		return nil, ErrNoActiveWorker
	}
	return w.Fetch(ctx, req)
}

// NotificationClick dispatches a notification click to the active worker.
func (r *Registration) NotificationClick(ctx context.Context, ev NotificationClick) (*ClickResult, error) {
	w := r.Active()
	if w == nil {
		return nil, ErrNoActiveWorker
	}
	return w.HandleNotificationClick(ctx, ev)
}
