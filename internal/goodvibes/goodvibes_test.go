package goodvibes

import (
	"os"
	"path/filepath"
	"testing"

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

// writeTranscript writes a minimal transcript to root/<dir>/<id>.jsonl.
func writeTranscript(t *testing.T, root, dir, id, cwd string) string {
	t.Helper()
	cwdField := ""
	if cwd != "" {
		cwdField = `,"cwd":"` + cwd + `"`
	}
	content := `{"type":"user","sessionId":"` + id + `"` + cwdField + `,"timestamp":"2025-03-01T10:00:00Z","message":{"role":"user","content":"add retries to the http client"}}
{"type":"assistant","sessionId":"` + id + `","timestamp":"2025-03-01T10:01:00Z","message":{"role":"assistant","content":[{"type":"text","text":"Done."}]}}
`
	path := filepath.Join(root, dir, id+".jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
