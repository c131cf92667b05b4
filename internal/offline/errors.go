package offline

import (
	"errors"
	"fmt"
)

var (
	// ErrInstallFailed marks every install failure. Nothing is committed when it occurs.
	ErrInstallFailed = errors.New("offline worker install failed")

	// ErrNetwork marks a failed network fetch that had no offline substitute.
	ErrNetwork = errors.New("network request failed")

	// ErrNotIntercepted is returned for requests the worker leaves to the network
	// untouched (every method other than GET).
	ErrNotIntercepted = errors.New("request not intercepted")

	// ErrNotActive is returned when a worker that is not activated is asked to fetch.
	ErrNotActive = errors.New("offline worker is not active")

	// ErrNoActiveWorker is returned by a registration with no active worker.
	ErrNoActiveWorker = errors.New("no active offline worker")

	// ErrInvalidState is returned for a lifecycle transition from the wrong state.
	ErrInvalidState = errors.New("invalid worker state transition")
)

// InstallError describes why an install was aborted.
type InstallError struct {
	Version string
	Asset   string // empty when the failure is not tied to one asset
	Err     error
}

func (e *InstallError) Error() string {
	if e.Asset != "" {
		return fmt.Sprintf("install %s: precache %s: %v", e.Version, e.Asset, e.Err)
	}
	return fmt.Sprintf("install %s: %v", e.Version, e.Err)
}

func (e *InstallError) Unwrap() []error {
	return []error{ErrInstallFailed, e.Err}
}

// FetchError is returned when a GET missed every cache generation and the network
// failed, and the request was not an HTML navigation.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}
