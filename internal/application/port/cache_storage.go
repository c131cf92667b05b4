package port

import (
	"context"

	"github.com/bnema/candyland/internal/domain/entity"
)

// CacheRecord pairs a request with the response stored for it.
type CacheRecord struct {
	Request  *entity.Request
	Response *entity.Response
}

// ResponseCache is one named cache generation: request key -> response snapshot.
// Every operation is atomic from the caller's point of view.
type ResponseCache interface {
	// Name returns the generation name.
	Name() string

	// Match returns the stored response for req, or nil, nil on a miss.
	Match(ctx context.Context, req *entity.Request) (*entity.Response, error)

	// Put stores resp under req, replacing any previous entry.
	Put(ctx context.Context, req *entity.Request, resp *entity.Response) error

	// PutAll stores every record or none of them.
	PutAll(ctx context.Context, records []CacheRecord) error

	// Delete removes the entry for req. Returns false when there was none.
	Delete(ctx context.Context, req *entity.Request) (bool, error)

	// Requests lists the stored request keys.
	Requests(ctx context.Context) ([]string, error)
}

// CacheStorage holds every named cache generation.
type CacheStorage interface {
	// Open returns the named generation, creating it when absent.
	Open(ctx context.Context, name string) (ResponseCache, error)

	// Has reports whether the named generation exists.
	Has(ctx context.Context, name string) (bool, error)

	// Keys lists generation names in creation order.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes a generation and all its entries.
	// Returns false when it did not exist.
	Delete(ctx context.Context, name string) (bool, error)
}

// CacheUsageReporter is implemented by storages that can report their footprint
// per generation without loading every entry.
type CacheUsageReporter interface {
	Stats(ctx context.Context) (map[string]entity.GenerationUsage, error)
}
