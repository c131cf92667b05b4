package offline_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/infrastructure/cachestorage"
	"github.com/bnema/candyland/internal/logging"
	"github.com/bnema/candyland/internal/offline"
)

const testScope = "http://app.test/"

var errOffline = errors.New("dial tcp: connection refused")

func testContext() context.Context {
	logger := logging.NewFromConfigValues("debug", "console")
	return logging.WithContext(context.Background(), logger)
}

// fakeNetwork serves fixed bodies by absolute URL and counts calls.
type fakeNetwork struct {
	mu      sync.Mutex
	bodies  map[string]string
	status  map[string]int
	offline atomic.Bool
	calls   atomic.Int64
	hang    bool
}

func newFakeNetwork() *fakeNetwork {
	n := &fakeNetwork{bodies: make(map[string]string), status: make(map[string]int)}
	for _, asset := range entity.DefaultManifest() {
		u := resolve(asset)
		n.bodies[u] = "content of " + asset
	}
	return n
}

func resolve(asset string) string {
	switch asset {
	case "./":
		return testScope
	default:
		return testScope + asset[2:]
	}
}

func (n *fakeNetwork) set(url, body string, status int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies[url] = body
	n.status[url] = status
}

func (n *fakeNetwork) Fetch(ctx context.Context, req *entity.Request) (*entity.Response, error) {
	n.calls.Add(1)
	if n.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n.offline.Load() {
		return nil, errOffline
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	body, ok := n.bodies[req.URL]
	if !ok {
		return &entity.Response{Status: http.StatusNotFound, Header: http.Header{}, Body: []byte("not found")}, nil
	}
	status := n.status[req.URL]
	if status == 0 {
		status = http.StatusOK
	}
	return &entity.Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}, nil
}

// countingStorage records every generation opened and every entry looked up or written.
type countingStorage struct {
	port.CacheStorage
	opens   atomic.Int64
	matches atomic.Int64
	puts    atomic.Int64
}

func newCountingStorage() *countingStorage {
	return &countingStorage{CacheStorage: cachestorage.NewMemory()}
}

func (s *countingStorage) Open(ctx context.Context, name string) (port.ResponseCache, error) {
	s.opens.Add(1)
	c, err := s.CacheStorage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingCache{ResponseCache: c, parent: s}, nil
}

func (s *countingStorage) reset() {
	s.opens.Store(0)
	s.matches.Store(0)
	s.puts.Store(0)
}

type countingCache struct {
	port.ResponseCache
	parent *countingStorage
}

func (c *countingCache) Match(ctx context.Context, req *entity.Request) (*entity.Response, error) {
	c.parent.matches.Add(1)
	return c.ResponseCache.Match(ctx, req)
}

func (c *countingCache) Put(ctx context.Context, req *entity.Request, resp *entity.Response) error {
	c.parent.puts.Add(1)
	return c.ResponseCache.Put(ctx, req, resp)
}

func (c *countingCache) PutAll(ctx context.Context, records []port.CacheRecord) error {
	c.parent.puts.Add(int64(len(records)))
	return c.ResponseCache.PutAll(ctx, records)
}

// fakeClients is an in-memory window client list.
type fakeClients struct {
	mu      sync.Mutex
	windows []*fakeWindow
	claimed []string
	nextID  int
}

type fakeWindow struct {
	id      string
	url     string
	focused bool
}

func (w *fakeWindow) ID() string  { return w.id }
func (w *fakeWindow) URL() string { return w.url }
func (w *fakeWindow) Focus(context.Context) error {
	w.focused = true
	return nil
}

func (c *fakeClients) add(url string) *fakeWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	w := &fakeWindow{id: fmt.Sprintf("client-%d", c.nextID), url: url}
	c.windows = append(c.windows, w)
	return w
}

func (c *fakeClients) MatchAll(context.Context) ([]port.WindowClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]port.WindowClient, len(c.windows))
	for i, w := range c.windows {
		out[i] = w
	}
	return out, nil
}

func (c *fakeClients) OpenWindow(_ context.Context, url string) (port.WindowClient, error) {
	return c.add(url), nil
}

func (c *fakeClients) Claim(_ context.Context, version string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimed = append(c.claimed, version)
	return nil
}

func newWorker(cfg offline.Config, storage port.CacheStorage, network port.Fetcher, clients port.WindowClients) *offline.Worker {
	w, err := offline.NewWorker(cfg, offline.Deps{Storage: storage, Network: network, Clients: clients})
	if err != nil {
		panic(err)
	}
	return w
}
