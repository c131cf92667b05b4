package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
)

// CacheStorage keeps cache generations in SQLite so the precache survives
// restarts. Deleting a generation cascades to its entries.
type CacheStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewCacheStorage returns a SQLite-backed port.CacheStorage.
func NewCacheStorage(db *sql.DB) *CacheStorage {
	return &CacheStorage{db: db, now: time.Now}
}

func (s *CacheStorage) Open(ctx context.Context, name string) (port.ResponseCache, error) {
	if name == "" {
		return nil, fmt.Errorf("cache name cannot be empty")
	}

	id, err := s.lookupID(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO cache_names (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
			name, s.now().UnixMilli()); err != nil {
			return nil, fmt.Errorf("create cache %s: %w", name, err)
		}
		id, err = s.lookupID(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}
	return &sqliteCache{storage: s, id: id, name: name}, nil
}

func (s *CacheStorage) lookupID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM cache_names WHERE name = ?`, name).Scan(&id)
	return id, err
}

func (s *CacheStorage) Has(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_names WHERE name = ?`, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CacheStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM cache_names ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *CacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_names WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete cache %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats reports entry count and stored body bytes per generation.
func (s *CacheStorage) Stats(ctx context.Context) (map[string]entity.GenerationUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.name, COUNT(e.id), COALESCE(SUM(LENGTH(e.body)), 0)
		FROM cache_names n
		LEFT JOIN cache_entries e ON e.cache_id = n.id
		GROUP BY n.id`)
	if err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]entity.GenerationUsage)
	for rows.Next() {
		var name string
		var st entity.GenerationUsage
		if err := rows.Scan(&name, &st.Entries, &st.Bytes); err != nil {
			return nil, err
		}
		stats[name] = st
	}
	return stats, rows.Err()
}

// sqliteCache is one generation row and its entries.
type sqliteCache struct {
	storage *CacheStorage
	id      int64
	name    string
}

func (c *sqliteCache) Name() string { return c.name }

func (c *sqliteCache) Match(ctx context.Context, req *entity.Request) (*entity.Response, error) {
	var (
		status   int
		header   string
		body     []byte
		storedAt int64
	)
	err := c.storage.db.QueryRowContext(ctx,
		`SELECT status, header, body, stored_at FROM cache_entries WHERE cache_id = ? AND request_key = ?`,
		c.id, req.Key()).Scan(&status, &header, &body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match %s in %s: %w", req.Key(), c.name, err)
	}

	resp := &entity.Response{Status: status, Body: body, StoredAt: time.UnixMilli(storedAt)}
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		return nil, fmt.Errorf("decode header of %s: %w", req.Key(), err)
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	return resp, nil
}

func (c *sqliteCache) Put(ctx context.Context, req *entity.Request, resp *entity.Response) error {
	return c.PutAll(ctx, []port.CacheRecord{{Request: req, Response: resp}})
}

// PutAll writes every record in one transaction.
func (c *sqliteCache) PutAll(ctx context.Context, records []port.CacheRecord) (err error) {
	for i, rec := range records {
		if rec.Request == nil || rec.Response == nil {
			return fmt.Errorf("cache record %d is incomplete", i)
		}
	}

	tx, err := c.storage.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put into %s: %w", c.name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cache_entries (cache_id, request_key, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_id, request_key) DO UPDATE SET
			status = excluded.status,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at`)
	if err != nil {
		return fmt.Errorf("prepare put into %s: %w", c.name, err)
	}
	defer stmt.Close()

	now := c.storage.now()
	for _, rec := range records {
		header, err := json.Marshal(rec.Response.Header)
		if err != nil {
			return fmt.Errorf("encode header of %s: %w", rec.Request.Key(), err)
		}
		storedAt := rec.Response.StoredAt
		if storedAt.IsZero() {
			storedAt = now
		}
		body := rec.Response.Body
		if body == nil {
			body = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, c.id, rec.Request.Key(), rec.Response.Status,
			string(header), body, storedAt.UnixMilli()); err != nil {
			return fmt.Errorf("put %s into %s: %w", rec.Request.Key(), c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put into %s: %w", c.name, err)
	}
	return nil
}

func (c *sqliteCache) Delete(ctx context.Context, req *entity.Request) (bool, error) {
	res, err := c.storage.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE cache_id = ? AND request_key = ?`, c.id, req.Key())
	if err != nil {
		return false, fmt.Errorf("delete %s from %s: %w", req.Key(), c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *sqliteCache) Requests(ctx context.Context) ([]string, error) {
	rows, err := c.storage.db.QueryContext(ctx,
		`SELECT request_key FROM cache_entries WHERE cache_id = ? ORDER BY id`, c.id)
	if err != nil {
		return nil, fmt.Errorf("list entries of %s: %w", c.name, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
