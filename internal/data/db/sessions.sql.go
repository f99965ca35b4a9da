package db

import (
	"context"
	"database/sql"
)

const sessionColumns = `id, project_path, title, messages, scan_status, scan_depth, scanned_at, archived, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.ProjectPath,
		&s.Title,
		&s.Messages,
		&s.ScanStatus,
		&s.ScanDepth,
		&s.ScannedAt,
		&s.Archived,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const getSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSession, id))
}

const listSessions = `SELECT ` + sessionColumns + ` FROM sessions ORDER BY updated_at DESC, id`

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type UpsertSessionParams struct {
	ID          string
	ProjectPath string
	Title       string
	Messages    string
	ScanStatus  string
	Archived    bool
	CreatedAt   int64
	UpdatedAt   int64
}

// Scan state is only written on insert; re-imports keep the existing outcome.
const upsertSession = `
INSERT INTO sessions (id, project_path, title, messages, scan_status, archived, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    project_path = excluded.project_path,
    title        = excluded.title,
    messages     = excluded.messages,
    archived     = excluded.archived,
    updated_at   = excluded.updated_at`

func (q *Queries) UpsertSession(ctx context.Context, arg UpsertSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSession,
		arg.ID,
		arg.ProjectPath,
		arg.Title,
		arg.Messages,
		arg.ScanStatus,
		arg.Archived,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const listPendingSessionIDs = `SELECT id FROM sessions WHERE scan_status = 'pending' AND archived = 0 ORDER BY updated_at DESC, id`

func (q *Queries) ListPendingSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPendingSessionIDs)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

const countPendingSessions = `SELECT COUNT(*) FROM sessions WHERE scan_status = 'pending' AND archived = 0`

func (q *Queries) CountPendingSessions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPendingSessions).Scan(&n)
	return n, err
}

type UpdateScanStatusParams struct {
	ID         string
	ScanStatus string
	ScanDepth  string
	ScannedAt  sql.NullInt64
	UpdatedAt  int64
}

const updateScanStatus = `
UPDATE sessions
SET scan_status = ?, scan_depth = ?, scanned_at = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateScanStatus(ctx context.Context, arg UpdateScanStatusParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateScanStatus,
		arg.ScanStatus,
		arg.ScanDepth,
		arg.ScannedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const resetFailedScans = `UPDATE sessions SET scan_status = 'pending', scan_depth = '', updated_at = ? WHERE scan_status = 'failed'`

func (q *Queries) ResetFailedScans(ctx context.Context, updatedAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, resetFailedScans, updatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listSessionTags = `SELECT name FROM session_tags WHERE session_id = ? ORDER BY created_at, name`

func (q *Queries) ListSessionTags(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSessionTags, sessionID)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

const addSessionTag = `INSERT OR IGNORE INTO session_tags (session_id, name, created_at) VALUES (?, ?, ?)`

func (q *Queries) AddSessionTag(ctx context.Context, sessionID, name string, createdAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, addSessionTag, sessionID, name, createdAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTagNames = `SELECT DISTINCT name FROM session_tags ORDER BY name COLLATE NOCASE`

func (q *Queries) ListTagNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listTagNames)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}
