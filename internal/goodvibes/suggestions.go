package goodvibes

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/core/tagging"
)

// SuggestionService handles user review of stored suggestions.
type SuggestionService struct {
	suggestions tagging.Store
	sessions    session.Store
	retention   time.Duration
	now         func() time.Time
}

// NewSuggestionService creates a review service. Resolved suggestions older
// than retention are removed by Prune.
func NewSuggestionService(suggestions tagging.Store, sessions session.Store, retention time.Duration) *SuggestionService {
	return &SuggestionService{
		suggestions: suggestions,
		sessions:    sessions,
		retention:   retention,
		now:         time.Now,
	}
}

// List returns suggestions matching filter, newest first.
func (s *SuggestionService) List(ctx context.Context, filter tagging.ListFilter) ([]tagging.Suggestion, error) {
	return s.suggestions.List(ctx, filter)
}

// Accept applies the suggested tag to its session and marks it accepted.
func (s *SuggestionService) Accept(ctx context.Context, id string) (tagging.Suggestion, error) {
	sug, err := s.suggestions.Get(ctx, id)
	if err != nil {
		return tagging.Suggestion{}, err
	}

	if err := s.sessions.AddTag(ctx, sug.SessionID, sug.Name); err != nil {
		return tagging.Suggestion{}, fmt.Errorf("tag session %s: %w", sug.SessionID, err)
	}

	return s.resolve(ctx, sug, tagging.StatusAccepted)
}

// Reject marks a suggestion as wrong.
func (s *SuggestionService) Reject(ctx context.Context, id string) (tagging.Suggestion, error) {
	return s.setStatus(ctx, id, tagging.StatusRejected)
}

// Dismiss hides a suggestion without judging it.
func (s *SuggestionService) Dismiss(ctx context.Context, id string) (tagging.Suggestion, error) {
	return s.setStatus(ctx, id, tagging.StatusDismissed)
}

// Prune deletes resolved suggestions past the retention window.
func (s *SuggestionService) Prune(ctx context.Context) (int, error) {
	return s.suggestions.PruneResolved(ctx, s.now().Add(-s.retention))
}

func (s *SuggestionService) setStatus(ctx context.Context, id string, status tagging.Status) (tagging.Suggestion, error) {
	sug, err := s.suggestions.Get(ctx, id)
	if err != nil {
		return tagging.Suggestion{}, err
	}
	return s.resolve(ctx, sug, status)
}

func (s *SuggestionService) resolve(ctx context.Context, sug tagging.Suggestion, status tagging.Status) (tagging.Suggestion, error) {
	if err := s.suggestions.SetStatus(ctx, sug.ID, status); err != nil {
		return tagging.Suggestion{}, err
	}
	sug.Status = status
	return sug, nil
}
