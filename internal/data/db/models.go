package db

import "database/sql"

// Session is a row of the sessions table.
type Session struct {
	ID          string
	ProjectPath string
	Title       string
	Messages    string
	ScanStatus  string
	ScanDepth   string
	ScannedAt   sql.NullInt64
	Archived    bool
	CreatedAt   int64
	UpdatedAt   int64
}

// TagSuggestion is a row of the tag_suggestions table.
type TagSuggestion struct {
	ID         string
	SessionID  string
	Name       string
	Confidence float64
	Reasoning  string
	Category   string
	Status     string
	CreatedAt  int64
	UpdatedAt  int64
}

// KvStore is a row of the kv_store table.
type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}
