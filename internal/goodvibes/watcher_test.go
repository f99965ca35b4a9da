package goodvibes

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/goodvibes/internal/core/config"
	"github.com/colonyops/goodvibes/internal/core/eventbus"
	"github.com/colonyops/goodvibes/internal/integration/claude"
	"github.com/colonyops/goodvibes/pkg/executil"
)

func TestTranscriptWatcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "-work-api"), 0o755))

	w, err := NewTranscriptWatcher(root)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) {
			mu.Lock()
			got = append(got, paths...)
			mu.Unlock()
		})
	}()

	path := writeTranscript(t, root, "-work-api", "s1", "/work/api")
	require.NoError(t, os.WriteFile(filepath.Join(root, "-work-api", "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, path)
	assert.NotContains(t, got, filepath.Join(root, "-work-api", "notes.txt"))
}

func newTestApp(t *testing.T) (*App, *executil.RecordingExecutor) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Claude.ProjectsDir = t.TempDir()

	rec := &executil.RecordingExecutor{}
	return NewApp(&cfg, openTestDB(t), rec, eventbus.New()), rec
}

func queuedIDs(app *App) []string {
	var ids []string
	for _, it := range app.Scanner.Queue() {
		ids = append(ids, it.SessionID)
	}
	return ids
}

func TestRequeueTranscripts_SkipsArchived(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	root := app.Config.Claude.ProjectsDir

	require.NoError(t, claude.NewArchiveRegistry(app.KV).Archive(ctx, "cli-self"))
	user := writeTranscript(t, root, "-work-api", "s1", "/work/api")
	self := writeTranscript(t, root, "-work-api", "cli-self", "/work/api")

	app.requeueTranscripts(ctx, []string{user, self})

	assert.Equal(t, []string{"s1"}, queuedIDs(app))
	sess, err := app.Sessions.Get(ctx, "cli-self")
	require.NoError(t, err)
	assert.True(t, sess.Archived)
}

func TestRequeueTranscripts_ArchivedAfterImport(t *testing.T) {
	app, rec := newTestApp(t)
	ctx := context.Background()
	path := writeTranscript(t, app.Config.Claude.ProjectsDir, "-work-api", "cli-late", "/work/api")

	app.requeueTranscripts(ctx, []string{path})
	require.Equal(t, []string{"cli-late"}, queuedIDs(app))

	require.NoError(t, claude.NewArchiveRegistry(app.KV).Archive(ctx, "cli-late"))
	app.requeueTranscripts(ctx, []string{path})
	assert.Empty(t, queuedIDs(app), "archived on re-import drops the queued scan")

	require.NoError(t, app.Scanner.ScanBatch(ctx, []string{"cli-late"}))
	assert.Empty(t, rec.Recorded(), "an archived session never reaches the CLI")
}
