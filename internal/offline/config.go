package offline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/candyland/internal/domain/entity"
)

const defaultInstallConcurrency = 4

// Config describes one worker version.
type Config struct {
	// Scope is the absolute base URL that manifest entries and intercepted
	// request paths are resolved against.
	Scope string

	// Version is embedded in the precache generation name. Changing it is the
	// only way to invalidate precached assets.
	Version      string
	CachePrefix  string
	DynamicCache string
	OfflinePage  string
	Assets       entity.Manifest

	// SkipWaiting activates a freshly installed version immediately instead of
	// waiting for the previous version's clients to go away.
	SkipWaiting bool

	// FetchTimeout bounds a network fetch on cache miss. Zero means no bound.
	FetchTimeout time.Duration

	// InstallConcurrency bounds parallel manifest fetches during install.
	InstallConcurrency int
}

// DefaultConfig returns the app shell worker configuration for scope.
func DefaultConfig(scope string) Config {
	return Config{
		Scope:              scope,
		Version:            entity.DefaultCacheVersion,
		CachePrefix:        entity.DefaultCachePrefix,
		DynamicCache:       entity.DefaultDynamicCache,
		OfflinePage:        entity.DefaultOfflinePage,
		Assets:             entity.DefaultManifest(),
		SkipWaiting:        true,
		InstallConcurrency: defaultInstallConcurrency,
	}
}

// Names returns the current generation names for this version.
func (c Config) Names() entity.CacheNames {
	return entity.CacheNames{
		Precache: entity.PrecacheName(c.CachePrefix, c.Version),
		Dynamic:  c.DynamicCache,
	}
}

// Validate checks the configuration can drive a worker.
func (c Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.Scope)
	if err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("scope %q must be an absolute URL", c.Scope))
	}
	if strings.TrimSpace(c.Version) == "" {
		problems = append(problems, "version must not be empty")
	}
	if strings.TrimSpace(c.CachePrefix) == "" {
		problems = append(problems, "cache prefix must not be empty")
	}
	if strings.TrimSpace(c.DynamicCache) == "" {
		problems = append(problems, "dynamic cache name must not be empty")
	}
	if c.DynamicCache == entity.PrecacheName(c.CachePrefix, c.Version) {
		problems = append(problems, "dynamic cache name must differ from the precache name")
	}
	if c.OfflinePage != "" && !c.Assets.Contains(c.OfflinePage) {
		problems = append(problems, fmt.Sprintf("offline page %q must be listed in the asset manifest", c.OfflinePage))
	}
	if c.FetchTimeout < 0 {
		problems = append(problems, "fetch timeout must be non-negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid worker config:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// resolve turns a manifest entry or request path into an absolute URL within scope.
func (c Config) resolve(ref string) string {
	base, err := url.Parse(c.Scope)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
