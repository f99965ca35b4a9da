package db

import (
	"context"
	"database/sql"
)

const kvGet = `SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	var r KvStore
	err := q.db.QueryRowContext(ctx, kvGet, key).Scan(
		&r.Key,
		&r.Value,
		&r.ExpiresAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

const kvSet = `
INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    value      = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet,
		arg.Key,
		arg.Value,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

const kvListKeys = `SELECT key FROM kv_store WHERE expires_at IS NULL OR expires_at >= ? ORDER BY key`

func (q *Queries) KVListKeys(ctx context.Context, now sql.NullInt64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, kvListKeys, now)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

const kvSweepExpired = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?`

func (q *Queries) KVSweepExpired(ctx context.Context, now sql.NullInt64) (int64, error) {
	res, err := q.db.ExecContext(ctx, kvSweepExpired, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
