package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/goodvibes/internal/core/tagging"
	"github.com/colonyops/goodvibes/internal/data/db"
)

// SuggestionStore implements tagging.Store using SQLite.
type SuggestionStore struct {
	db  *db.DB
	now func() time.Time
}

var _ tagging.Store = (*SuggestionStore)(nil)

// NewSuggestionStore creates a new SQLite-backed suggestion store.
func NewSuggestionStore(db *db.DB) *SuggestionStore {
	return &SuggestionStore{db: db, now: time.Now}
}

// Create inserts all records in one transaction. Candidates are normalized
// and validated before anything is written.
func (s *SuggestionStore) Create(ctx context.Context, records []tagging.NewRecord) ([]tagging.Suggestion, error) {
	if len(records) == 0 {
		return nil, nil
	}

	now := s.now()
	out := make([]tagging.Suggestion, 0, len(records))
	for _, rec := range records {
		c := rec.Candidate.Normalize()
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid suggestion for session %s: %w", rec.SessionID, err)
		}
		out = append(out, tagging.Suggestion{
			ID:         uuid.NewString(),
			SessionID:  rec.SessionID,
			Name:       c.Name,
			Confidence: c.Confidence,
			Reasoning:  c.Reasoning,
			Category:   c.Category,
			Status:     tagging.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		for _, sug := range out {
			if err := q.InsertSuggestion(ctx, suggestionToRow(sug)); err != nil {
				return fmt.Errorf("failed to insert suggestion %q: %w", sug.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a suggestion by ID.
func (s *SuggestionStore) Get(ctx context.Context, id string) (tagging.Suggestion, error) {
	row, err := s.db.Queries().GetSuggestion(ctx, id)
	if IsNotFoundError(err) {
		return tagging.Suggestion{}, tagging.ErrSuggestionNotFound
	}
	if err != nil {
		return tagging.Suggestion{}, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return rowToSuggestion(row), nil
}

// List returns suggestions matching filter, newest first.
func (s *SuggestionStore) List(ctx context.Context, filter tagging.ListFilter) ([]tagging.Suggestion, error) {
	rows, err := s.db.Queries().ListSuggestions(ctx, db.ListSuggestionsParams{
		SessionID: filter.SessionID,
		Status:    string(filter.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	out := make([]tagging.Suggestion, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToSuggestion(row))
	}
	return out, nil
}

// SetStatus updates the review state of a suggestion.
func (s *SuggestionStore) SetStatus(ctx context.Context, id string, status tagging.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid suggestion status %q", status)
	}

	n, err := s.db.Queries().SetSuggestionStatus(ctx, id, string(status), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to set suggestion status: %w", err)
	}
	if n == 0 {
		return tagging.ErrSuggestionNotFound
	}
	return nil
}

// PruneResolved deletes accepted, rejected and dismissed suggestions last
// updated before cutoff. Pending suggestions are never pruned.
func (s *SuggestionStore) PruneResolved(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := s.db.Queries().DeleteResolvedSuggestions(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune suggestions: %w", err)
	}
	return int(n), nil
}

func suggestionToRow(s tagging.Suggestion) db.TagSuggestion {
	return db.TagSuggestion{
		ID:         s.ID,
		SessionID:  s.SessionID,
		Name:       s.Name,
		Confidence: s.Confidence,
		Reasoning:  s.Reasoning,
		Category:   s.Category,
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt.UnixNano(),
		UpdatedAt:  s.UpdatedAt.UnixNano(),
	}
}

func rowToSuggestion(row db.TagSuggestion) tagging.Suggestion {
	return tagging.Suggestion{
		ID:         row.ID,
		SessionID:  row.SessionID,
		Name:       row.Name,
		Confidence: row.Confidence,
		Reasoning:  row.Reasoning,
		Category:   row.Category,
		Status:     tagging.Status(row.Status),
		CreatedAt:  time.Unix(0, row.CreatedAt),
		UpdatedAt:  time.Unix(0, row.UpdatedAt),
	}
}
