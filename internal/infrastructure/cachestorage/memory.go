// Package cachestorage provides in-process implementations of port.CacheStorage.
package cachestorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/infrastructure/cache"
	"github.com/bnema/candyland/internal/logging"
)

// defaultGenerationCapacity bounds generations that have no explicit capacity.
// Precache generations hold the asset manifest and are expected to stay far below it.
const defaultGenerationCapacity = 1 << 16

// Memory keeps cache generations in process memory. Each generation is an LRU,
// so a runtime-populated generation can be bounded with WithCapacity.
type Memory struct {
	mu         sync.Mutex
	order      []string
	caches     map[string]*memoryCache
	capacities map[string]int
	now        func() time.Time
}

// Option configures a Memory storage.
type Option func(*Memory)

// WithCapacity bounds the named generation to n entries.
func WithCapacity(name string, n int) Option {
	return func(m *Memory) {
		m.capacities[name] = n
	}
}

// NewMemory creates an empty in-memory cache storage.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		caches:     make(map[string]*memoryCache),
		capacities: make(map[string]int),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns the named generation, creating it when absent.
func (m *Memory) Open(ctx context.Context, name string) (port.ResponseCache, error) {
	if name == "" {
		return nil, fmt.Errorf("cache name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.caches[name]; ok {
		return c, nil
	}

	capacity := defaultGenerationCapacity
	if n, ok := m.capacities[name]; ok && n > 0 {
		capacity = n
	}

	lru := cache.NewLRU[string, *entity.Response](capacity)
	log := logging.FromContext(ctx).With().Str("cache", name).Logger()
	lru.OnEvict(func(key string, _ *entity.Response) {
		log.Debug().Str("key", key).Msg("evicted cache entry")
	})

	c := &memoryCache{name: name, entries: lru, now: m.now}
	m.caches[name] = c
	m.order = append(m.order, name)
	return c, nil
}

// Has reports whether the named generation exists.
func (m *Memory) Has(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.caches[name]
	return ok, nil
}

// Keys lists generation names in creation order.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.order))
	copy(keys, m.order)
	return keys, nil
}

// Delete removes a generation and all its entries.
func (m *Memory) Delete(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[name]
	if !ok {
		return false, nil
	}
	c.entries.Clear()
	delete(m.caches, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Stats reports entry count and stored body bytes per generation.
func (m *Memory) Stats(_ context.Context) (map[string]entity.GenerationUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]entity.GenerationUsage, len(m.caches))
	for name, c := range m.caches {
		var usage entity.GenerationUsage
		for _, key := range c.entries.Keys() {
			resp, ok := c.entries.Peek(key)
			if !ok {
				continue
			}
			usage.Entries++
			usage.Bytes += int64(len(resp.Body))
		}
		stats[name] = usage
	}
	return stats, nil
}

type memoryCache struct {
	name    string
	entries *cache.LRU[string, *entity.Response]
	now     func() time.Time
}

func (c *memoryCache) Name() string { return c.name }

func (c *memoryCache) Match(_ context.Context, req *entity.Request) (*entity.Response, error) {
	resp, ok := c.entries.Get(req.Key())
	if !ok {
		return nil, nil
	}
	return resp.Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, req *entity.Request, resp *entity.Response) error {
	c.entries.Set(req.Key(), c.snapshot(resp))
	return nil
}

func (c *memoryCache) PutAll(_ context.Context, records []port.CacheRecord) error {
	keys := make([]string, len(records))
	values := make([]*entity.Response, len(records))
	for i, rec := range records {
		if rec.Request == nil || rec.Response == nil {
			return fmt.Errorf("cache record %d is incomplete", i)
		}
		keys[i] = rec.Request.Key()
		values[i] = c.snapshot(rec.Response)
	}
	c.entries.SetAll(keys, values)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, req *entity.Request) (bool, error) {
	key := req.Key()
	if _, ok := c.entries.Peek(key); !ok {
		return false, nil
	}
	c.entries.Remove(key)
	return true, nil
}

func (c *memoryCache) Requests(_ context.Context) ([]string, error) {
	return c.entries.Keys(), nil
}

func (c *memoryCache) snapshot(resp *entity.Response) *entity.Response {
	s := resp.Clone()
	if s.StoredAt.IsZero() {
		s.StoredAt = c.now()
	}
	return s
}
