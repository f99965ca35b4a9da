package goodvibes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/core/tagging"
	"github.com/colonyops/goodvibes/internal/data/stores"
)

func setupSuggestions(t *testing.T) (*SuggestionService, *stores.SessionStore, []tagging.Suggestion) {
	t.Helper()
	ctx := context.Background()
	database := openTestDB(t)
	sessions := stores.NewSessionStore(database)
	suggestions := stores.NewSuggestionStore(database)

	require.NoError(t, sessions.Save(ctx, session.Session{ID: "s1", Title: "retry logic"}))
	created, err := suggestions.Create(ctx, []tagging.NewRecord{
		{SessionID: "s1", Candidate: tagging.Candidate{Name: "http", Confidence: 0.9, Reasoning: "http client"}},
		{SessionID: "s1", Candidate: tagging.Candidate{Name: "retries", Confidence: 0.7, Reasoning: "adds retries"}},
		{SessionID: "s1", Candidate: tagging.Candidate{Name: "python", Confidence: 0.1, Reasoning: "guess"}},
	})
	require.NoError(t, err)

	return NewSuggestionService(suggestions, sessions, time.Hour), sessions, created
}

func TestSuggestionService_AcceptAddsTag(t *testing.T) {
	ctx := context.Background()
	svc, sessions, created := setupSuggestions(t)

	got, err := svc.Accept(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tagging.StatusAccepted, got.Status)

	sess, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"http"}, sess.Tags)

	pending, err := svc.List(ctx, tagging.ListFilter{Status: tagging.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSuggestionService_RejectDismiss(t *testing.T) {
	ctx := context.Background()
	svc, sessions, created := setupSuggestions(t)

	_, err := svc.Reject(ctx, created[2].ID)
	require.NoError(t, err)
	_, err = svc.Dismiss(ctx, created[1].ID)
	require.NoError(t, err)

	sess, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Tags)

	rejected, err := svc.List(ctx, tagging.ListFilter{Status: tagging.StatusRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "python", rejected[0].Name)
}

func TestSuggestionService_UnknownID(t *testing.T) {
	svc, _, _ := setupSuggestions(t)

	_, err := svc.Accept(context.Background(), "nope")
	assert.ErrorIs(t, err, tagging.ErrSuggestionNotFound)
}

func TestSuggestionService_Prune(t *testing.T) {
	ctx := context.Background()
	svc, _, created := setupSuggestions(t)

	_, err := svc.Reject(ctx, created[2].ID)
	require.NoError(t, err)

	n, err := svc.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "inside retention")

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = svc.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only resolved suggestions are pruned")
}
