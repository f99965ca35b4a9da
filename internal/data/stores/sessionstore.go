package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/data/db"
)

// SessionStore implements session.Store using SQLite.
type SessionStore struct {
	db  *db.DB
	now func() time.Time
}

var _ session.Store = (*SessionStore)(nil)

// NewSessionStore creates a new SQLite-backed session store.
func NewSessionStore(db *db.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Get returns a session by ID. Returns ErrNotFound if not found.
func (s *SessionStore) Get(ctx context.Context, id string) (session.Session, error) {
	row, err := s.db.Queries().GetSession(ctx, id)
	if IsNotFoundError(err) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	tags, err := s.db.Queries().ListSessionTags(ctx, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to list session tags: %w", err)
	}

	sess, err := rowToSession(row, tags)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to convert session: %w", err)
	}
	return sess, nil
}

// Save creates or updates a session. The scan status is only written when the
// row is new; tags are merged into the existing set.
func (s *SessionStore) Save(ctx context.Context, sess session.Session) error {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	status := sess.ScanStatus
	if status == "" {
		status = session.ScanPending
	}

	now := s.now()
	created := sess.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := sess.UpdatedAt
	if updated.IsZero() {
		updated = now
	}

	return s.db.WithTx(ctx, func(q *db.Queries) error {
		err := q.UpsertSession(ctx, db.UpsertSessionParams{
			ID:          sess.ID,
			ProjectPath: sess.ProjectPath,
			Title:       sess.Title,
			Messages:    string(messages),
			ScanStatus:  string(status),
			Archived:    sess.Archived,
			CreatedAt:   created.UnixNano(),
			UpdatedAt:   updated.UnixNano(),
		})
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		for _, tag := range sess.Tags {
			if _, err := q.AddSessionTag(ctx, sess.ID, tag, now.UnixNano()); err != nil {
				return fmt.Errorf("failed to save tag %q: %w", tag, err)
			}
		}
		return nil
	})
}

// List returns all sessions, most recently updated first. Messages are
// decoded; tags are not loaded.
func (s *SessionStore) List(ctx context.Context) ([]session.Session, error) {
	rows, err := s.db.Queries().ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		sess, err := rowToSession(row, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to convert session %s: %w", row.ID, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// PendingIDs returns IDs with scan_status 'pending', excluding archived rows.
// Failed sessions are not pending; see ResetFailed.
func (s *SessionStore) PendingIDs(ctx context.Context) ([]string, error) {
	ids, err := s.db.Queries().ListPendingSessionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}
	return ids, nil
}

// CountPending returns the number of pending sessions.
func (s *SessionStore) CountPending(ctx context.Context) (int, error) {
	n, err := s.db.Queries().CountPendingSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending sessions: %w", err)
	}
	return int(n), nil
}

// UpdateScanStatus records the scan outcome. scanned_at is set for completed
// scans and cleared otherwise.
func (s *SessionStore) UpdateScanStatus(ctx context.Context, id string, status session.ScanStatus, depth session.ScanDepth) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid scan status %q", status)
	}

	now := s.now().UnixNano()
	var scannedAt sql.NullInt64
	if status == session.ScanCompleted {
		scannedAt = sql.NullInt64{Int64: now, Valid: true}
	}

	n, err := s.db.Queries().UpdateScanStatus(ctx, db.UpdateScanStatusParams{
		ID:         id,
		ScanStatus: string(status),
		ScanDepth:  string(depth),
		ScannedAt:  scannedAt,
		UpdatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to update scan status: %w", err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// ResetFailed moves failed sessions back to pending.
func (s *SessionStore) ResetFailed(ctx context.Context) (int, error) {
	n, err := s.db.Queries().ResetFailedScans(ctx, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed scans: %w", err)
	}
	return int(n), nil
}

// AddTag applies a tag to an existing session. Adding a tag twice is a no-op.
func (s *SessionStore) AddTag(ctx context.Context, id, tag string) error {
	if _, err := s.db.Queries().GetSession(ctx, id); err != nil {
		if IsNotFoundError(err) {
			return session.ErrNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if _, err := s.db.Queries().AddSessionTag(ctx, id, tag, s.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to add tag: %w", err)
	}
	return nil
}

// TagNames returns the distinct tag vocabulary across all sessions.
func (s *SessionStore) TagNames(ctx context.Context) ([]string, error) {
	names, err := s.db.Queries().ListTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag names: %w", err)
	}
	return names, nil
}

// rowToSession converts a db.Session to a session.Session.
func rowToSession(row db.Session, tags []string) (session.Session, error) {
	var messages []session.Message
	if row.Messages != "" {
		if err := json.Unmarshal([]byte(row.Messages), &messages); err != nil {
			return session.Session{}, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}

	sess := session.Session{
		ID:          row.ID,
		ProjectPath: row.ProjectPath,
		Title:       row.Title,
		Messages:    messages,
		Tags:        tags,
		ScanStatus:  session.ScanStatus(row.ScanStatus),
		ScanDepth:   session.ScanDepth(row.ScanDepth),
		Archived:    row.Archived,
		CreatedAt:   time.Unix(0, row.CreatedAt),
		UpdatedAt:   time.Unix(0, row.UpdatedAt),
	}
	if row.ScannedAt.Valid {
		t := time.Unix(0, row.ScannedAt.Int64)
		sess.ScannedAt = &t
	}
	return sess, nil
}
