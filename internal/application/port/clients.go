package port

import "context"

// WindowClient is one open page session controlled by the offline worker.
type WindowClient interface {
	ID() string
	URL() string
	Focus(ctx context.Context) error
}

// WindowClients enumerates and opens page sessions.
type WindowClients interface {
	// MatchAll returns every open window client.
	MatchAll(ctx context.Context) ([]WindowClient, error)

	// OpenWindow opens a new page session at url.
	OpenWindow(ctx context.Context, url string) (WindowClient, error)

	// Claim makes the given worker version the controller of every open client.
	Claim(ctx context.Context, version string) error
}
