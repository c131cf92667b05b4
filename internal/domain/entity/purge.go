package entity

// GenerationKind classifies a stored cache generation against the running worker.
type GenerationKind int

const (
	GenerationPrecache GenerationKind = iota
	GenerationDynamic
	GenerationStale
)

func (k GenerationKind) String() string {
	switch k {
	case GenerationPrecache:
		return "precache"
	case GenerationDynamic:
		return "dynamic"
	default:
		return "stale"
	}
}

// GenerationUsage is the stored footprint of one generation.
type GenerationUsage struct {
	Entries int
	Bytes   int64
}

// CacheGeneration represents one stored generation that can be purged.
type CacheGeneration struct {
	Name string
	Kind GenerationKind
	GenerationUsage
}

// Current reports whether the running worker still reads from this generation.
func (g CacheGeneration) Current() bool {
	return g.Kind != GenerationStale
}

// Classify returns the kind of the generation called name.
func (n CacheNames) Classify(name string) GenerationKind {
	switch name {
	case n.Precache:
		return GenerationPrecache
	case n.Dynamic:
		return GenerationDynamic
	default:
		return GenerationStale
	}
}

// PurgeResult represents the outcome of purging a single generation.
type PurgeResult struct {
	Generation CacheGeneration
	Success    bool
	Error      error
}
