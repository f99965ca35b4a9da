package goodvibes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/data/stores"
	"github.com/colonyops/goodvibes/internal/integration/claude"
)

func TestImportAll(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	kvStore := stores.NewKVStore(database)
	sessions := stores.NewSessionStore(database)
	archive := claude.NewArchiveRegistry(kvStore)

	projects := t.TempDir()
	writeTranscript(t, projects, "-work-api", "s1", "/work/api")
	writeTranscript(t, projects, "-work-api", "tagger", "/work/api")
	require.NoError(t, os.WriteFile(filepath.Join(projects, "-work-api", "empty.jsonl"), nil, 0o644))
	require.NoError(t, archive.Archive(ctx, "tagger"))

	// The project dir exists on disk, so the encoded name decodes.
	realProject := filepath.Join(t.TempDir(), "my-app")
	require.NoError(t, os.MkdirAll(realProject, 0o755))
	writeTranscript(t, projects, claude.EncodeProjectDir(realProject), "s2", "")

	svc := NewImportService(sessions, archive, projects)
	result, err := svc.ImportAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, ImportResult{Imported: 2, Archived: 1, Skipped: 1}, result)

	s1, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "/work/api", s1.ProjectPath)
	assert.Equal(t, session.ScanPending, s1.ScanStatus)
	assert.Equal(t, "add retries to the http client", s1.Title)

	s2, err := sessions.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, realProject, s2.ProjectPath, "resolved from the directory name")

	pending, err := sessions.PendingIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, pending, "archived sessions are never pending")
}

func TestImportFile_KeepsScanState(t *testing.T) {
	ctx := context.Background()
	sessions := stores.NewSessionStore(openTestDB(t))
	projects := t.TempDir()
	path := writeTranscript(t, projects, "-work", "s1", "/work")

	svc := NewImportService(sessions, nil, projects)
	_, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)
	require.NoError(t, sessions.UpdateScanStatus(ctx, "s1", session.ScanCompleted, session.DepthQuick))
	require.NoError(t, sessions.AddTag(ctx, "s1", "http"))

	_, err = svc.ImportFile(ctx, path)
	require.NoError(t, err)

	got, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.ScanCompleted, got.ScanStatus)
	assert.Equal(t, []string{"http"}, got.Tags)
}

func TestImportAll_MissingProjectsDir(t *testing.T) {
	sessions := stores.NewSessionStore(openTestDB(t))
	svc := NewImportService(sessions, nil, filepath.Join(t.TempDir(), "missing"))

	result, err := svc.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ImportResult{}, result)
}

func TestImportFile_CachesUnresolvedDirs(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	kvStore := stores.NewKVStore(database)
	sessions := stores.NewSessionStore(database)

	project := filepath.Join(t.TempDir(), "created-later")
	encoded := claude.EncodeProjectDir(project)
	path := writeTranscript(t, t.TempDir(), encoded, "s1", "")

	svc := NewImportService(sessions, nil, filepath.Dir(filepath.Dir(path))).WithUnresolvedCache(kvStore)

	sess, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, sess.ProjectPath)

	has, err := kvStore.Has(ctx, "unresolved:"+encoded)
	require.NoError(t, err)
	assert.True(t, has, "miss is remembered")

	require.NoError(t, os.MkdirAll(project, 0o755))
	sess, err = svc.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, sess.ProjectPath, "cached miss skips the search")

	require.NoError(t, kvStore.Delete(ctx, "unresolved:"+encoded))
	sess, err = svc.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, project, sess.ProjectPath)
}
