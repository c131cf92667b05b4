package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/domain/repository"
	"github.com/bnema/candyland/internal/logging"
)

type subscriptionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSubscriptionRepository returns a SQLite-backed subscription repository.
func NewSubscriptionRepository(db *sql.DB) repository.SubscriptionRepository {
	return &subscriptionRepo{db: db, now: time.Now}
}

func (r *subscriptionRepo) GetAll(ctx context.Context) ([]*entity.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT endpoint, p256dh, auth, expiration_time, created_at
		FROM subscriptions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Subscription
	for rows.Next() {
		var (
			sub        entity.Subscription
			expiration sql.NullInt64
			createdAt  int64
		)
		if err := rows.Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth, &expiration, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if expiration.Valid {
			v := expiration.Int64
			sub.ExpirationTime = &v
		}
		sub.CreatedAt = time.UnixMilli(createdAt).UTC()
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

func (r *subscriptionRepo) Append(ctx context.Context, sub *entity.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	var expiration sql.NullInt64
	if sub.ExpirationTime != nil {
		expiration = sql.NullInt64{Int64: *sub.ExpirationTime, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (endpoint, p256dh, auth, expiration_time, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO NOTHING`,
		sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, expiration, createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		logging.FromContext(ctx).Debug().Str("endpoint", entity.ShortEndpoint(sub.Endpoint)).Msg("subscription stored")
	}
	return nil
}

func (r *subscriptionRepo) RemoveByEndpoint(ctx context.Context, endpoint string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
