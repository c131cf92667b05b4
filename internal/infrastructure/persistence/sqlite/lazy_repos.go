package sqlite

import (
	"context"
	"sync"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/domain/repository"
)

// LazySubscriptionRepository opens the database on first use.
type LazySubscriptionRepository struct {
	provider port.DatabaseProvider
	once     sync.Once
	repo     repository.SubscriptionRepository
	initErr  error
}

// NewLazySubscriptionRepository wraps provider in a subscription repository.
func NewLazySubscriptionRepository(provider port.DatabaseProvider) *LazySubscriptionRepository {
	return &LazySubscriptionRepository{provider: provider}
}

func (r *LazySubscriptionRepository) init(ctx context.Context) error {
	r.once.Do(func() {
		db, err := r.provider.DB(ctx)
		if err != nil {
			r.initErr = err
			return
		}
		r.repo = NewSubscriptionRepository(db)
	})
	return r.initErr
}

func (r *LazySubscriptionRepository) GetAll(ctx context.Context) ([]*entity.Subscription, error) {
	if err := r.init(ctx); err != nil {
		return nil, err
	}
	return r.repo.GetAll(ctx)
}

func (r *LazySubscriptionRepository) Append(ctx context.Context, sub *entity.Subscription) error {
	if err := r.init(ctx); err != nil {
		return err
	}
	return r.repo.Append(ctx, sub)
}

func (r *LazySubscriptionRepository) RemoveByEndpoint(ctx context.Context, endpoint string) (bool, error) {
	if err := r.init(ctx); err != nil {
		return false, err
	}
	return r.repo.RemoveByEndpoint(ctx, endpoint)
}

var _ repository.SubscriptionRepository = (*LazySubscriptionRepository)(nil)
