package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertSession(t *testing.T, q *Queries, id, status string, updatedAt int64) {
	t.Helper()
	require.NoError(t, q.UpsertSession(context.Background(), UpsertSessionParams{
		ID:         id,
		Messages:   "[]",
		ScanStatus: status,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}))
}

func TestUpsertSession_PreservesScanState(t *testing.T) {
	database := openTestDB(t)
	q := database.Queries()
	ctx := context.Background()

	insertSession(t, q, "s1", "pending", 1)

	_, err := q.UpdateScanStatus(ctx, UpdateScanStatusParams{
		ID:         "s1",
		ScanStatus: "completed",
		ScanDepth:  "quick",
		ScannedAt:  sql.NullInt64{Int64: 5, Valid: true},
		UpdatedAt:  5,
	})
	require.NoError(t, err)

	// Re-import with a "pending" status must not reset the outcome.
	require.NoError(t, q.UpsertSession(ctx, UpsertSessionParams{
		ID:         "s1",
		Title:      "renamed",
		Messages:   "[]",
		ScanStatus: "pending",
		CreatedAt:  9,
		UpdatedAt:  9,
	}))

	row, err := q.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", row.Title)
	assert.Equal(t, "completed", row.ScanStatus)
	assert.Equal(t, "quick", row.ScanDepth)
	assert.Equal(t, int64(1), row.CreatedAt)
}

func TestPendingQueries(t *testing.T) {
	database := openTestDB(t)
	q := database.Queries()
	ctx := context.Background()

	insertSession(t, q, "old", "pending", 1)
	insertSession(t, q, "new", "pending", 2)
	insertSession(t, q, "done", "completed", 3)
	insertSession(t, q, "bad", "failed", 4)

	ids, err := q.ListPendingSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)

	n, err := q.CountPendingSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	reset, err := q.ResetFailedScans(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	n, err = q.CountPendingSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSessionTags(t *testing.T) {
	database := openTestDB(t)
	q := database.Queries()
	ctx := context.Background()

	insertSession(t, q, "s1", "pending", 1)
	insertSession(t, q, "s2", "pending", 1)

	added, err := q.AddSessionTag(ctx, "s1", "bug", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	added, err = q.AddSessionTag(ctx, "s1", "BUG", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), added, "tag names are case-insensitive")

	_, err = q.AddSessionTag(ctx, "s2", "api", 1)
	require.NoError(t, err)
	_, err = q.AddSessionTag(ctx, "s2", "bug", 1)
	require.NoError(t, err)

	names, err := q.ListTagNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "bug"}, names)

	tags, err := q.ListSessionTags(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bug"}, tags)
}

func TestSuggestionQueries(t *testing.T) {
	database := openTestDB(t)
	q := database.Queries()
	ctx := context.Background()

	insertSession(t, q, "s1", "pending", 1)

	for i, status := range []string{"pending", "accepted", "rejected"} {
		require.NoError(t, q.InsertSuggestion(ctx, TagSuggestion{
			ID:         status,
			SessionID:  "s1",
			Name:       "tag-" + status,
			Confidence: 0.5,
			Reasoning:  "because",
			Category:   "other",
			Status:     status,
			CreatedAt:  int64(i + 1),
			UpdatedAt:  int64(i + 1),
		}))
	}

	all, err := q.ListSuggestions(ctx, ListSuggestionsParams{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "rejected", all[0].ID, "newest first")

	pending, err := q.ListSuggestions(ctx, ListSuggestionsParams{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	n, err := q.SetSuggestionStatus(ctx, "missing", "accepted", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	deleted, err := q.DeleteResolvedSuggestions(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "only accepted (updated_at=2) is older than the cutoff")
}
