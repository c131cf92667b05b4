package entity

// WorkerState is a position in the offline worker lifecycle.
type WorkerState int

const (
	WorkerParsed WorkerState = iota
	WorkerInstalling
	// WorkerInstalled is the waiting state: installed but not yet in control.
	WorkerInstalled
	WorkerActivating
	WorkerActivated
	// WorkerRedundant is terminal: install failed or a newer version replaced it.
	WorkerRedundant
)

// String returns a human-readable representation of the worker state.
func (s WorkerState) String() string {
	switch s {
	case WorkerParsed:
		return "parsed"
	case WorkerInstalling:
		return "installing"
	case WorkerInstalled:
		return "installed"
	case WorkerActivating:
		return "activating"
	case WorkerActivated:
		return "activated"
	case WorkerRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// FetchSource tells where a fetch result came from.
type FetchSource string

const (
	SourcePrecache FetchSource = "precache"
	SourceDynamic  FetchSource = "dynamic"
	SourceNetwork  FetchSource = "network"
	SourceOffline  FetchSource = "offline"
)
