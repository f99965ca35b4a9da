// Package goodvibes wires the stores, the claude client and the scanner into
// the services the CLI commands use.
package goodvibes

import (
	"context"
	"errors"

	"github.com/colonyops/goodvibes/internal/core/config"
	"github.com/colonyops/goodvibes/internal/core/eventbus"
	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/data/db"
	"github.com/colonyops/goodvibes/internal/data/stores"
	"github.com/colonyops/goodvibes/internal/goodvibes/sweep"
	"github.com/colonyops/goodvibes/internal/integration/claude"
	"github.com/colonyops/goodvibes/internal/tagscan"
	"github.com/colonyops/goodvibes/pkg/executil"
)

// App is the central entry point for goodvibes operations. Commands consume
// App instead of cherry-picking raw dependencies.
type App struct {
	Import      *ImportService
	Suggestions *SuggestionService
	Scanner     *tagscan.Scanner
	Settings    *stores.Settings
	Sessions    session.Store
	Claude      *claude.Client

	KV     *stores.KVStore
	Bus    *eventbus.EventBus
	Config *config.Config
	DB     *db.DB
}

// NewApp constructs an App over an open database.
func NewApp(cfg *config.Config, database *db.DB, exec executil.Executor, bus *eventbus.EventBus) *App {
	kvStore := stores.NewKVStore(database)
	sessions := stores.NewSessionStore(database)
	suggestions := stores.NewSuggestionStore(database)
	settings := stores.NewSettings(kvStore, cfg.TagScan.RateLimitEnabled, cfg.TagScan.ScanAgentSessions)
	archive := claude.NewArchiveRegistry(kvStore)
	client := claude.NewClient(exec, cfg.Claude, archive)

	return &App{
		Import:      NewImportService(sessions, archive, cfg.Claude.ProjectsDir).WithUnresolvedCache(kvStore),
		Suggestions: NewSuggestionService(suggestions, sessions, cfg.TagScan.SuggestionRetention),
		Scanner:     tagscan.New(sessions, suggestions, settings, client, bus, cfg.TagScan),
		Settings:    settings,
		Sessions:    sessions,
		Claude:      client,
		KV:          kvStore,
		Bus:         bus,
		Config:      cfg,
		DB:          database,
	}
}

// StartSweep runs housekeeping in the background until ctx is done.
func (a *App) StartSweep(ctx context.Context) {
	go sweep.Start(ctx, a.KV, a.Suggestions, a.Config.TagScan.SweepInterval)
}

// WatchTranscripts re-imports transcripts as they change and queues them at
// high priority. It blocks until ctx is done.
func (a *App) WatchTranscripts(ctx context.Context) error {
	w, err := NewTranscriptWatcher(a.Config.Claude.ProjectsDir)
	if err != nil {
		return err
	}

	return w.Run(ctx, func(paths []string) {
		a.requeueTranscripts(ctx, paths)
	})
}

// requeueTranscripts re-imports changed transcripts and queues them at high
// priority. Transcripts the CLI wrote for goodvibes itself are archived on
// import and dropped from the queue if an earlier write already queued them.
func (a *App) requeueTranscripts(ctx context.Context, paths []string) {
	log := logging.Component("watcher")
	for _, path := range paths {
		sess, err := a.Import.ImportFile(ctx, path)
		if err != nil {
			if !errors.Is(err, ErrEmptyTranscript) {
				log.Warn().Err(err).Str("path", path).Msg("failed to re-import transcript")
			}
			continue
		}
		if sess.Archived {
			if a.Scanner.Unqueue(sess.ID) {
				log.Debug().Str("session_id", sess.ID).Msg("dropped archived session from queue")
			}
			continue
		}
		if sess.IsAgent() {
			if ok, err := a.Settings.ScanAgentSessions(ctx); err != nil || !ok {
				continue
			}
		}
		a.Scanner.QueueSession(sess.ID, tagscan.PriorityHigh)
	}
}

// Close waits for background archive writes to finish.
func (a *App) Close() {
	a.Claude.Wait()
}
