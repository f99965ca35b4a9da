// Package session defines the conversation session domain types and interfaces.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// AgentPrefix marks sessions created by subagents rather than the user.
const AgentPrefix = "agent-"

// ScanStatus tracks where a session is in the tag-suggestion pipeline.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// IsValid reports whether s is a known scan status.
func (s ScanStatus) IsValid() bool {
	switch s {
	case ScanPending, ScanCompleted, ScanFailed:
		return true
	default:
		return false
	}
}

// ScanDepth records how thoroughly a session was scanned.
type ScanDepth string

const (
	DepthQuick ScanDepth = "quick"
	DepthFull  ScanDepth = "full"
)

// Message is one turn of a stored conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tools     []string  `json:"tools,omitempty"` // tool names invoked in this turn
	Timestamp time.Time `json:"timestamp"`
}

// Session is a persisted record of one assistant conversation.
type Session struct {
	ID          string     `json:"id"`
	ProjectPath string     `json:"project_path"`
	Title       string     `json:"title"`
	Messages    []Message  `json:"messages,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ScanStatus  ScanStatus `json:"scan_status"`
	ScanDepth   ScanDepth  `json:"scan_depth,omitempty"`
	ScannedAt   *time.Time `json:"scanned_at,omitempty"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsAgent reports whether the session belongs to a subagent.
func (s *Session) IsAgent() bool {
	return IsAgentID(s.ID)
}

// IsAgentID reports whether id names a subagent session.
func IsAgentID(id string) bool {
	return strings.HasPrefix(id, AgentPrefix)
}

// HasTag reports whether the session already carries tag (case-insensitive).
func (s *Session) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AddTag appends tag when it is not already present. Returns true if added.
func (s *Session) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || s.HasTag(tag) {
		return false
	}
	s.Tags = append(s.Tags, tag)
	return true
}

// Store is the persistence interface for sessions.
type Store interface {
	// Get returns a session by ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (Session, error)
	// Save creates or updates a session. Scan state of an existing row is preserved.
	Save(ctx context.Context, sess Session) error
	// List returns sessions, newest first.
	List(ctx context.Context) ([]Session, error)
	// PendingIDs returns IDs of sessions awaiting a tag scan.
	PendingIDs(ctx context.Context) ([]string, error)
	// CountPending returns the number of sessions awaiting a tag scan.
	CountPending(ctx context.Context) (int, error)
	// UpdateScanStatus records the scan outcome for a session.
	UpdateScanStatus(ctx context.Context, id string, status ScanStatus, depth ScanDepth) error
	// ResetFailed moves every failed session back to pending and returns the count.
	ResetFailed(ctx context.Context) (int, error)
	// AddTag applies tag to a session. Returns ErrNotFound if the session is missing.
	AddTag(ctx context.Context, id, tag string) error
	// TagNames returns every distinct tag applied to any session.
	TagNames(ctx context.Context) ([]string, error)
}
