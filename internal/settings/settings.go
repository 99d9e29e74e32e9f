package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const upsertSQL = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

const bumpRevisionSQL = `UPDATE store_revision SET revision = revision + 1 WHERE id = 1`

// Get returns the stored value for key. The second return reports whether the
// key exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %q: %w", key, err)
	}
	return value, true, nil
}

// GetAll returns every stored key/value pair.
func (s *Store) GetAll(ctx context.Context) (map[string]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return values, nil
}

// Upsert atomically inserts or overwrites a single key and advances the store
// revision.
func (s *Store) Upsert(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("setting key is empty")
	}
	return s.UpsertMany(ctx, map[string]string{key: value})
}

// UpsertMany writes every key in values inside a single transaction. Either
// the whole batch lands or the store is left untouched. The revision counter
// advances once per successful batch.
func (s *Store) UpsertMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	for key := range values {
		if strings.TrimSpace(key) == "" {
			return errors.New("setting key is empty")
		}
	}
	ctx = ensureContext(ctx)

	// Deterministic write order keeps lock acquisition stable across writers.
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin settings tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, upsertSQL, key, values[key], now); err != nil {
				return fmt.Errorf("upsert setting %q: %w", key, err)
			}
		}
		if _, err := tx.ExecContext(ctx, bumpRevisionSQL); err != nil {
			return fmt.Errorf("advance store revision: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit settings: %w", err)
		}
		return nil
	})
}

// Namespace returns every key under prefix with the prefix stripped.
func (s *Store) Namespace(ctx context.Context, prefix string) (map[string]string, error) {
	if prefix == "" {
		return nil, errors.New("namespace prefix is empty")
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM settings WHERE key LIKE ? || '%'", prefix)
	if err != nil {
		return nil, fmt.Errorf("read namespace %q: %w", prefix, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan namespace setting: %w", err)
		}
		values[strings.TrimPrefix(key, prefix)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate namespace: %w", err)
	}
	return values, nil
}

// Revision returns the current store revision. It increases monotonically
// with every successful write.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var revision int64
	err := s.db.QueryRowContext(ctx, "SELECT revision FROM store_revision WHERE id = 1").Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("read store revision: %w", err)
	}
	return revision, nil
}
