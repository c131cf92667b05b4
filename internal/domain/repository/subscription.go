package repository

import (
	"context"

	"github.com/bnema/candyland/internal/domain/entity"
)

// SubscriptionRepository defines operations for push subscription persistence.
type SubscriptionRepository interface {
	// GetAll retrieves every stored subscription in insertion order.
	GetAll(ctx context.Context) ([]*entity.Subscription, error)

	// Append stores a subscription. Storing an endpoint that already exists is a no-op.
	Append(ctx context.Context, sub *entity.Subscription) error

	// RemoveByEndpoint deletes the subscription with the given endpoint.
	// Returns false when no subscription matched.
	RemoveByEndpoint(ctx context.Context, endpoint string) (bool, error)
}
