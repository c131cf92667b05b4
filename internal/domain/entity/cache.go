package entity

import "strings"

// Cache generation defaults.
const (
	DefaultCachePrefix  = "candyland-cache"
	DefaultCacheVersion = "v5"
	DefaultDynamicCache = "dynamic-v1"
	DefaultOfflinePage  = "./offline.html"
)

// CacheNames holds the two generation names that are current at any time.
// Every other generation name is stale.
type CacheNames struct {
	Precache string
	Dynamic  string
}

// PrecacheName builds the versioned precache generation name.
func PrecacheName(prefix, version string) string {
	return prefix + "-" + version
}

// PrecacheVersion extracts the version from a precache generation name.
// The second return value is false when name does not carry prefix.
func PrecacheVersion(prefix, name string) (string, bool) {
	version, ok := strings.CutPrefix(name, prefix+"-")
	if !ok || version == "" {
		return "", false
	}
	return version, true
}

// IsCurrent reports whether name is the current precache or the dynamic generation.
func (n CacheNames) IsCurrent(name string) bool {
	return name == n.Precache || name == n.Dynamic
}

// Manifest is the ordered list of URLs that make up the offline-capable surface.
type Manifest []string

// DefaultManifest returns the app shell assets.
func DefaultManifest() Manifest {
	return Manifest{
		"./",
		"./index.html",
		"./actividades.html",
		"./examen.html",
		"./juego.html",
		"./styles.css",
		"./app.js",
		"./client.js",
		"./examen.js",
		"./manifest.json",
		DefaultOfflinePage,
	}
}

// Contains reports whether the manifest lists rawURL.
func (m Manifest) Contains(rawURL string) bool {
	for _, u := range m {
		if u == rawURL {
			return true
		}
	}
	return false
}
