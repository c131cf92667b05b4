// Package jsonfile stores push subscriptions as a JSON array in a single file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/domain/repository"
	"github.com/bnema/candyland/internal/logging"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// SubscriptionRepository keeps the full list in memory and rewrites the file on
// every change. Writes go to a temporary file that is renamed into place.
type SubscriptionRepository struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	subs   []*entity.Subscription
	loaded bool
}

// NewSubscriptionRepository returns a repository backed by the file at path.
// The file is read on first use; a missing file is an empty list.
func NewSubscriptionRepository(path string) *SubscriptionRepository {
	return &SubscriptionRepository{path: path, now: time.Now}
}

// Path returns the backing file.
func (r *SubscriptionRepository) Path() string { return r.path }

func (r *SubscriptionRepository) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.subs = nil
		r.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read subscriptions: %w", err)
	}

	var subs []*entity.Subscription
	if len(data) > 0 {
		if err := json.Unmarshal(data, &subs); err != nil {
			return fmt.Errorf("decode %s: %w", r.path, err)
		}
	}
	r.subs = subs
	r.loaded = true
	logging.FromContext(ctx).Debug().Str("path", r.path).Int("count", len(subs)).Msg("subscriptions loaded")
	return nil
}

func (r *SubscriptionRepository) saveLocked(subs []*entity.Subscription) error {
	if subs == nil {
		subs = []*entity.Subscription{}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".subscriptions-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

func (r *SubscriptionRepository) GetAll(ctx context.Context) ([]*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]*entity.Subscription, len(r.subs))
	for i, s := range r.subs {
		c := *s
		out[i] = &c
	}
	return out, nil
}

func (r *SubscriptionRepository) Append(ctx context.Context, sub *entity.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return err
	}
	for _, s := range r.subs {
		if s.Endpoint == sub.Endpoint {
			return nil
		}
	}

	stored := *sub
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now().UTC()
	}
	next := append(append([]*entity.Subscription(nil), r.subs...), &stored)
	if err := r.saveLocked(next); err != nil {
		return err
	}
	r.subs = next
	return nil
}

func (r *SubscriptionRepository) RemoveByEndpoint(ctx context.Context, endpoint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return false, err
	}

	next := make([]*entity.Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if s.Endpoint != endpoint {
			next = append(next, s)
		}
	}
	if len(next) == len(r.subs) {
		return false, nil
	}
	if err := r.saveLocked(next); err != nil {
		return false, err
	}
	r.subs = next
	return true, nil
}

var _ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
