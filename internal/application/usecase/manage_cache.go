package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

// ManageCacheUseCase inspects and purges stored cache generations outside of
// the worker lifecycle.
type ManageCacheUseCase struct {
	storage port.CacheStorage
	names   entity.CacheNames
}

// NewManageCacheUseCase creates a cache maintenance use case. names are the
// generations the configured worker treats as current.
func NewManageCacheUseCase(storage port.CacheStorage, names entity.CacheNames) *ManageCacheUseCase {
	return &ManageCacheUseCase{storage: storage, names: names}
}

// Names returns the current generation names.
func (uc *ManageCacheUseCase) Names() entity.CacheNames {
	return uc.names
}

// List returns every stored generation, current ones first, then stale ones by name.
func (uc *ManageCacheUseCase) List(ctx context.Context) ([]entity.CacheGeneration, error) {
	keys, err := uc.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache generations: %w", err)
	}

	usage, err := uc.usage(ctx, keys)
	if err != nil {
		return nil, err
	}

	generations := make([]entity.CacheGeneration, 0, len(keys))
	for _, name := range keys {
		generations = append(generations, entity.CacheGeneration{
			Name:            name,
			Kind:            uc.names.Classify(name),
			GenerationUsage: usage[name],
		})
	}

	sort.SliceStable(generations, func(i, j int) bool {
		if generations[i].Kind != generations[j].Kind {
			return generations[i].Kind < generations[j].Kind
		}
		return generations[i].Name < generations[j].Name
	})
	return generations, nil
}

func (uc *ManageCacheUseCase) usage(ctx context.Context, keys []string) (map[string]entity.GenerationUsage, error) {
	if reporter, ok := uc.storage.(port.CacheUsageReporter); ok {
		stats, err := reporter.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read cache usage: %w", err)
		}
		return stats, nil
	}

	stats := make(map[string]entity.GenerationUsage, len(keys))
	for _, name := range keys {
		c, err := uc.storage.Open(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		requests, err := c.Requests(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", name, err)
		}
		stats[name] = entity.GenerationUsage{Entries: len(requests)}
	}
	return stats, nil
}

// Purge deletes the given generations. Failures are reported per generation.
func (uc *ManageCacheUseCase) Purge(ctx context.Context, generations []entity.CacheGeneration) []entity.PurgeResult {
	log := logging.FromContext(ctx)

	results := make([]entity.PurgeResult, 0, len(generations))
	for _, g := range generations {
		result := entity.PurgeResult{Generation: g}
		removed, err := uc.storage.Delete(ctx, g.Name)
		switch {
		case err != nil:
			result.Error = err
		case !removed:
			result.Error = fmt.Errorf("cache generation %q not found", g.Name)
		default:
			result.Success = true
		}

		if result.Error != nil {
			log.Warn().Err(result.Error).Str("cache", g.Name).Msg("failed to purge cache generation")
		} else {
			log.Info().Str("cache", g.Name).Str("kind", g.Kind.String()).Msg("purged cache generation")
		}
		results = append(results, result)
	}
	return results
}

// PurgeStale deletes every generation the worker no longer reads from.
func (uc *ManageCacheUseCase) PurgeStale(ctx context.Context) ([]entity.PurgeResult, error) {
	generations, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	var stale []entity.CacheGeneration
	for _, g := range generations {
		if !g.Current() {
			stale = append(stale, g)
		}
	}
	return uc.Purge(ctx, stale), nil
}

// Entries lists the request keys stored in the named generation.
func (uc *ManageCacheUseCase) Entries(ctx context.Context, name string) ([]string, error) {
	has, err := uc.storage.Has(ctx, name)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("cache generation %q not found", name)
	}
	c, err := uc.storage.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	requests, err := c.Requests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}
	sort.Strings(requests)
	return requests, nil
}
