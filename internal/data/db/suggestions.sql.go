package db

import "context"

const suggestionColumns = `id, session_id, name, confidence, reasoning, category, status, created_at, updated_at`

func scanSuggestion(row interface{ Scan(...any) error }) (TagSuggestion, error) {
	var s TagSuggestion
	err := row.Scan(
		&s.ID,
		&s.SessionID,
		&s.Name,
		&s.Confidence,
		&s.Reasoning,
		&s.Category,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const insertSuggestion = `
INSERT INTO tag_suggestions (` + suggestionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertSuggestion(ctx context.Context, arg TagSuggestion) error {
	_, err := q.db.ExecContext(ctx, insertSuggestion,
		arg.ID,
		arg.SessionID,
		arg.Name,
		arg.Confidence,
		arg.Reasoning,
		arg.Category,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getSuggestion = `SELECT ` + suggestionColumns + ` FROM tag_suggestions WHERE id = ?`

func (q *Queries) GetSuggestion(ctx context.Context, id string) (TagSuggestion, error) {
	return scanSuggestion(q.db.QueryRowContext(ctx, getSuggestion, id))
}

type ListSuggestionsParams struct {
	SessionID string // empty matches all
	Status    string // empty matches all
}

const listSuggestions = `
SELECT ` + suggestionColumns + ` FROM tag_suggestions
WHERE (? = '' OR session_id = ?)
  AND (? = '' OR status = ?)
ORDER BY created_at DESC, confidence DESC, id`

func (q *Queries) ListSuggestions(ctx context.Context, arg ListSuggestionsParams) ([]TagSuggestion, error) {
	rows, err := q.db.QueryContext(ctx, listSuggestions,
		arg.SessionID, arg.SessionID,
		arg.Status, arg.Status,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TagSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const setSuggestionStatus = `UPDATE tag_suggestions SET status = ?, updated_at = ? WHERE id = ?`

func (q *Queries) SetSuggestionStatus(ctx context.Context, id, status string, updatedAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, setSuggestionStatus, status, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteResolvedSuggestions = `
DELETE FROM tag_suggestions
WHERE status IN ('accepted', 'rejected', 'dismissed') AND updated_at < ?`

func (q *Queries) DeleteResolvedSuggestions(ctx context.Context, before int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteResolvedSuggestions, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
