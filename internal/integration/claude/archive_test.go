package claude

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/goodvibes/internal/data/db"
	"github.com/colonyops/goodvibes/internal/data/stores"
)

func TestArchiveRegistry(t *testing.T) {
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ctx := context.Background()
	reg := NewArchiveRegistry(stores.NewKVStore(database))

	archived, err := reg.IsArchived(ctx, "cli-1")
	require.NoError(t, err)
	assert.False(t, archived)

	require.NoError(t, reg.Archive(ctx, "cli-1"))

	archived, err = reg.IsArchived(ctx, "cli-1")
	require.NoError(t, err)
	assert.True(t, archived)
}
