// Package tagging defines tag suggestion domain types.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrSuggestionNotFound is returned when a suggestion does not exist.
var ErrSuggestionNotFound = errors.New("suggestion not found")

// DefaultCategory is applied to candidates that do not name a category.
const DefaultCategory = "other"

// Candidate is a proposed tag produced by the suggestion client. It is not
// persisted until the scanner turns it into a Suggestion.
type Candidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Category   string  `json:"category,omitempty"`
}

// Validate checks the candidate invariants: non-empty trimmed name and
// reasoning, finite confidence in [0,1].
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Reasoning) == "" {
		return fmt.Errorf("reasoning is required for %q", c.Name)
	}
	if math.IsNaN(c.Confidence) || math.IsInf(c.Confidence, 0) {
		return fmt.Errorf("confidence for %q is not a finite number", c.Name)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence for %q must be within [0,1], got %v", c.Name, c.Confidence)
	}
	return nil
}

// Normalize trims fields and fills the default category.
func (c Candidate) Normalize() Candidate {
	c.Name = strings.TrimSpace(c.Name)
	c.Reasoning = strings.TrimSpace(c.Reasoning)
	c.Category = strings.TrimSpace(c.Category)
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	return c
}

// Status is the review state of a persisted suggestion.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusDismissed Status = "dismissed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusDismissed:
		return true
	default:
		return false
	}
}

// IsResolved reports whether a user has acted on the suggestion.
func (s Status) IsResolved() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusDismissed
}

// Suggestion is a persisted tag proposal for one session.
type Suggestion struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Category   string    `json:"category"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewRecord is the input for creating a suggestion row.
type NewRecord struct {
	SessionID string
	Candidate Candidate
}

// ListFilter narrows suggestion queries. Zero values match everything.
type ListFilter struct {
	SessionID string
	Status    Status
}

// Store is the persistence interface for suggestions.
type Store interface {
	// Create inserts the records and returns the stored suggestions in input order.
	Create(ctx context.Context, records []NewRecord) ([]Suggestion, error)
	// Get returns a suggestion by ID. Returns ErrSuggestionNotFound if missing.
	Get(ctx context.Context, id string) (Suggestion, error)
	// List returns suggestions matching filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Suggestion, error)
	// SetStatus updates the review state of a suggestion.
	SetStatus(ctx context.Context, id string, status Status) error
	// PruneResolved deletes resolved suggestions last updated before cutoff.
	PruneResolved(ctx context.Context, cutoff time.Time) (int, error)
}
