package stores

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/goodvibes/internal/data/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestKVStore_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(openTestDB(t))

	type archived struct {
		SessionID string `json:"session_id"`
		Attempts  int    `json:"attempts"`
	}

	require.NoError(t, store.Set(ctx, "archived:abc", archived{SessionID: "abc", Attempts: 1}))
	require.NoError(t, store.Set(ctx, "archived:abc", archived{SessionID: "abc", Attempts: 2}))

	var got archived
	require.NoError(t, store.Get(ctx, "archived:abc", &got))
	assert.Equal(t, 2, got.Attempts)

	var missing string
	assert.ErrorIs(t, store.Get(ctx, "nope", &missing), sql.ErrNoRows)
}

func TestKVStore_HasDeleteListKeys(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(openTestDB(t))

	require.NoError(t, store.Set(ctx, "b", 1))
	require.NoError(t, store.Set(ctx, "a", 2))

	has, err := store.Has(ctx, "a")
	require.NoError(t, err)
	assert.True(t, has)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, store.Delete(ctx, "a"))
	has, err = store.Has(ctx, "a")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKVStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(openTestDB(t))
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "permanent", "stays"))
	require.NoError(t, store.SetTTL(ctx, "ephemeral", "goes", time.Minute))
	require.NoError(t, store.SetTTL(ctx, "sweepme", "goes", time.Minute))

	has, err := store.Has(ctx, "ephemeral")
	require.NoError(t, err)
	assert.True(t, has, "live before ttl")

	now = now.Add(2 * time.Minute)

	var v string
	require.ErrorIs(t, store.Get(ctx, "ephemeral", &v), sql.ErrNoRows, "lazy expiry on read")
	has, err = store.Has(ctx, "sweepme")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.SetTTL(ctx, "expired-later", "goes", time.Second))
	now = now.Add(time.Minute)

	n, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "lazily deleted rows are already gone")

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"permanent"}, keys)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings(NewKVStore(openTestDB(t)), true, false)

	enabled, err := settings.RateLimitEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled, "config default applies when unset")

	agents, err := settings.ScanAgentSessions(ctx)
	require.NoError(t, err)
	assert.False(t, agents)

	require.NoError(t, settings.Set(ctx, SettingRateLimitEnabled, false))
	require.NoError(t, settings.Set(ctx, SettingScanAgentSessions, true))

	enabled, err = settings.RateLimitEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	agents, err = settings.ScanAgentSessions(ctx)
	require.NoError(t, err)
	assert.True(t, agents)

	require.NoError(t, settings.Reset(ctx, SettingRateLimitEnabled))
	enabled, err = settings.RateLimitEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = settings.Get(ctx, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
	require.Error(t, settings.Set(ctx, "bogus", true))
}

func TestSettings_Overridden(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings(NewKVStore(openTestDB(t)), true, false)

	got, err := settings.Overridden(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, settings.Set(ctx, SettingScanAgentSessions, false))
	got, err = settings.Overridden(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{SettingScanAgentSessions: true}, got, "storing the default still counts")
}
