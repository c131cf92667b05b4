// Package clients keeps track of the page sessions seen by the offline proxy.
package clients

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/logging"
)

const defaultIdleTTL = 30 * time.Minute

// Launcher shows a URL to the user, typically in a browser.
type Launcher interface {
	Launch(ctx context.Context, url string) error
}

// Client is a snapshot of one tracked page session.
type Client struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Controller string    `json:"controller,omitempty"`
	LastSeen   time.Time `json:"lastSeen"`
	FocusedAt  time.Time `json:"focusedAt,omitzero"`
}

// Registry is an in-memory set of page sessions. Sessions unseen for longer than
// the idle TTL are dropped.
type Registry struct {
	mu       sync.Mutex
	clients  map[string]*Client
	idleTTL  time.Duration
	launcher Launcher
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithIdleTTL sets how long an unseen session is kept.
func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

// WithLauncher sets what OpenWindow and Focus use to bring a page to the user.
func WithLauncher(l Launcher) Option {
	return func(r *Registry) { r.launcher = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clients: make(map[string]*Client),
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track records that session id is showing url. Unknown or empty ids get a
// fresh one, which is returned.
func (r *Registry) Track(ctx context.Context, id, url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		id = uuid.NewString()
		c = &Client{ID: id}
		r.clients[id] = c
		logging.FromContext(ctx).Debug().Str("client_id", id).Str("url", url).Msg("new client")
	}
	c.URL = url
	c.LastSeen = r.now()
	return id, nil
}

// Clients returns every live session, most recently seen first.
func (r *Registry) Clients() []Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.idleTTL)
	for id, c := range r.clients {
		if c.LastSeen.Before(cutoff) {
			delete(r.clients, id)
		}
	}
}

// MatchAll implements port.WindowClients.
func (r *Registry) MatchAll(context.Context) ([]port.WindowClient, error) {
	snapshot := r.Clients()
	out := make([]port.WindowClient, len(snapshot))
	for i := range snapshot {
		out[i] = &window{reg: r, id: snapshot[i].ID, url: snapshot[i].URL}
	}
	return out, nil
}

// OpenWindow registers a new session at url and launches it when a launcher is set.
func (r *Registry) OpenWindow(ctx context.Context, url string) (port.WindowClient, error) {
	if r.launcher != nil {
		if err := r.launcher.Launch(ctx, url); err != nil {
			return nil, fmt.Errorf("launch %s: %w", url, err)
		}
	}
	id, err := r.Track(ctx, "", url)
	if err != nil {
		return nil, err
	}
	return &window{reg: r, id: id, url: url}, nil
}

// Claim marks every live session as controlled by version.
func (r *Registry) Claim(ctx context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	for _, c := range r.clients {
		c.Controller = version
	}
	logging.FromContext(ctx).Debug().Str("version", version).Int("clients", len(r.clients)).Msg("claimed clients")
	return nil
}

func (r *Registry) focus(ctx context.Context, id string) error {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("client %s is gone", id)
	}
	c.FocusedAt = r.now()
	url := c.URL
	r.mu.Unlock()

	if r.launcher != nil {
		return r.launcher.Launch(ctx, url)
	}
	return nil
}

type window struct {
	reg *Registry
	id  string
	url string
}

func (w *window) ID() string                      { return w.id }
func (w *window) URL() string                     { return w.url }
func (w *window) Focus(ctx context.Context) error { return w.reg.focus(ctx, w.id) }

var _ port.WindowClients = (*Registry)(nil)
