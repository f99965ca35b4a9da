// Package eventbus provides a typed, synchronous publish/subscribe bus that
// reports background scanner activity to interested listeners.
package eventbus

import (
	"github.com/colonyops/goodvibes/internal/core/tagging"
)

// Event names a bus topic. The string values are part of the public contract.
type Event string

const (
	EventComplete      Event = "complete"
	EventError         Event = "error"
	EventProgress      Event = "progress"
	EventQueueChanged  Event = "queueChanged"
	EventStatusChanged Event = "statusChanged"
)

// Events lists every topic, sorted A-Z.
var Events = []Event{
	EventComplete,
	EventError,
	EventProgress,
	EventQueueChanged,
	EventStatusChanged,
}

// ProgressPayload is emitted after each batch updates the run counters.
type ProgressPayload struct {
	Progress tagging.Progress
}

// CompletePayload is emitted once per session whose scan finished.
type CompletePayload struct {
	SessionID   string
	Suggestions []tagging.Suggestion
}

// ErrorPayload is emitted when a scan fails. SessionID is empty when the
// failure covered a whole batch.
type ErrorPayload struct {
	Err       error
	SessionID string
}

// QueueChangedPayload is emitted whenever the scan queue grows or shrinks.
type QueueChangedPayload struct {
	Size int
}

// StatusChangedPayload is emitted on scanner state transitions.
type StatusChangedPayload struct {
	Status tagging.ScannerStatus
}
