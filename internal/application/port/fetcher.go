package port

import (
	"context"

	"github.com/bnema/candyland/internal/domain/entity"
)

// Fetcher issues requests to the network.
// Any returned error is a network failure (offline, DNS, timeout, refused).
// HTTP error statuses are not errors: they come back as a response.
type Fetcher interface {
	Fetch(ctx context.Context, req *entity.Request) (*entity.Response, error)
}
