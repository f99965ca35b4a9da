package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/colonyops/goodvibes/internal/core/kv"
	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/data/db"
)

// KVStore implements kv.KV on the kv_store table. Values are stored as JSON.
// Expired rows are treated as missing on read and removed lazily or by
// SweepExpired.
type KVStore struct {
	db  *db.DB
	now func() time.Time
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	row, err := s.live(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}
	if err := json.Unmarshal(row.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetTTL stores a value that reads as missing once ttl has passed.
func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.set(ctx, key, value, sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true})
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Queries().KVDelete(ctx, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.live(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("kv has %q: %w", key, err)
	}
}

// ListKeys returns all non-expired keys in sorted order.
func (s *KVStore) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := s.db.Queries().KVListKeys(ctx, s.nowNano())
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	return keys, nil
}

// SweepExpired deletes every expired row and returns the count.
func (s *KVStore) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.db.Queries().KVSweepExpired(ctx, s.nowNano())
	if err != nil {
		return 0, fmt.Errorf("kv sweep expired: %w", err)
	}
	return int(n), nil
}

// live loads key and reports sql.ErrNoRows for missing or expired rows.
func (s *KVStore) live(ctx context.Context, key string) (db.KvStore, error) {
	row, err := s.db.Queries().KVGet(ctx, key)
	if err != nil {
		return db.KvStore{}, err
	}
	if row.ExpiresAt.Valid && row.ExpiresAt.Int64 < s.now().UnixNano() {
		if err := s.db.Queries().KVDelete(ctx, key); err != nil {
			logging.Component("kv").Debug().Ctx(ctx).Err(err).Str("key", key).Msg("failed to delete expired key")
		}
		return db.KvStore{}, sql.ErrNoRows
	}
	return row, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := s.now().UnixNano()
	err = s.db.Queries().KVSet(ctx, db.KVSetParams{
		Key:       key,
		Value:     data,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) nowNano() sql.NullInt64 {
	return sql.NullInt64{Int64: s.now().UnixNano(), Valid: true}
}
