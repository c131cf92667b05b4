package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/domain/repository"
	"github.com/bnema/candyland/internal/logging"
)

// ErrSubscriptionNotFound is returned when unsubscribing an unknown endpoint.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// ManageSubscriptionsUseCase registers and removes push subscriptions.
type ManageSubscriptionsUseCase struct {
	repo repository.SubscriptionRepository
}

// NewManageSubscriptionsUseCase creates a new subscription management use case.
func NewManageSubscriptionsUseCase(repo repository.SubscriptionRepository) *ManageSubscriptionsUseCase {
	return &ManageSubscriptionsUseCase{repo: repo}
}

// Subscribe stores sub unless its endpoint is already known and returns the
// number of stored subscriptions.
func (uc *ManageSubscriptionsUseCase) Subscribe(ctx context.Context, sub *entity.Subscription) (int, error) {
	if err := sub.Validate(); err != nil {
		return 0, err
	}
	log := logging.FromContext(ctx)
	log.Debug().Str("endpoint", entity.ShortEndpoint(sub.Endpoint)).Msg("subscribing")

	if err := uc.repo.Append(ctx, sub); err != nil {
		return 0, fmt.Errorf("failed to save subscription: %w", err)
	}

	total, err := uc.Count(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int("total", total).Msg("subscription registered")
	return total, nil
}

// Unsubscribe removes the subscription for endpoint and returns the number left.
func (uc *ManageSubscriptionsUseCase) Unsubscribe(ctx context.Context, endpoint string) (int, error) {
	if endpoint == "" {
		return 0, entity.ErrInvalidSubscription
	}
	log := logging.FromContext(ctx)

	removed, err := uc.repo.RemoveByEndpoint(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to remove subscription: %w", err)
	}
	if !removed {
		return 0, ErrSubscriptionNotFound
	}

	total, err := uc.Count(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Str("endpoint", entity.ShortEndpoint(endpoint)).Int("total", total).Msg("subscription removed")
	return total, nil
}

// Count returns the number of stored subscriptions.
func (uc *ManageSubscriptionsUseCase) Count(ctx context.Context) (int, error) {
	subs, err := uc.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(subs), nil
}

// List returns every stored subscription.
func (uc *ManageSubscriptionsUseCase) List(ctx context.Context) ([]*entity.Subscription, error) {
	subs, err := uc.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	return subs, nil
}
