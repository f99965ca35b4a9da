package goodvibes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/goodvibes/internal/core/kv"
	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/integration/claude"
)

// ErrEmptyTranscript is returned for transcripts without any messages.
var ErrEmptyTranscript = errors.New("transcript has no messages")

const (
	importConcurrency = 8
	transcriptGlob    = "*/*.jsonl"
	unresolvedTTL     = time.Hour
)

// ArchiveChecker reports whether a CLI session was created by goodvibes itself.
type ArchiveChecker interface {
	IsArchived(ctx context.Context, cliSessionID string) (bool, error)
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Archived int `json:"archived"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ImportService loads Claude Code transcripts into the session store.
type ImportService struct {
	sessions    session.Store
	archive     ArchiveChecker
	resolver    *claude.Resolver
	unresolved  *kv.TypedKV[time.Time]
	projectsDir string
	log         zerolog.Logger
}

// NewImportService creates an import service reading from projectsDir.
func NewImportService(sessions session.Store, archive ArchiveChecker, projectsDir string) *ImportService {
	return &ImportService{
		sessions:    sessions,
		archive:     archive,
		resolver:    claude.NewResolver(),
		projectsDir: projectsDir,
		log:         logging.Component("import"),
	}
}

// WithUnresolvedCache remembers directory names that could not be decoded so
// repeated imports skip the filesystem search until the entry expires.
func (s *ImportService) WithUnresolvedCache(store kv.KV) *ImportService {
	s.unresolved = kv.Scoped[time.Time](store, "unresolved")
	return s
}

// ImportAll imports every transcript under the projects directory. Individual
// file failures are counted and logged, not returned.
func (s *ImportService) ImportAll(ctx context.Context) (ImportResult, error) {
	paths, err := doublestar.Glob(os.DirFS(s.projectsDir), transcriptGlob)
	if err != nil {
		return ImportResult{}, fmt.Errorf("list transcripts: %w", err)
	}

	if err := s.seedResolver(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to seed project registry")
	}

	var (
		mu     sync.Mutex
		result ImportResult
	)
	count := func(fn func(r *ImportResult)) {
		mu.Lock()
		fn(&result)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)
	for _, rel := range paths {
		path := filepath.Join(s.projectsDir, rel)
		g.Go(func() error {
			sess, err := s.ImportFile(gctx, path)
			switch {
			case errors.Is(err, ErrEmptyTranscript):
				count(func(r *ImportResult) { r.Skipped++ })
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn().Err(err).Str("path", path).Msg("failed to import transcript")
				count(func(r *ImportResult) { r.Failed++ })
			case sess.Archived:
				count(func(r *ImportResult) { r.Archived++ })
			default:
				count(func(r *ImportResult) { r.Imported++ })
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	s.log.Info().
		Int("imported", result.Imported).
		Int("archived", result.Archived).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("import finished")
	return result, nil
}

// ImportFile parses one transcript and upserts it. Existing scan state and
// tags are kept by the store.
func (s *ImportService) ImportFile(ctx context.Context, path string) (session.Session, error) {
	tr, err := claude.ParseTranscript(path)
	if err != nil {
		return session.Session{}, err
	}
	sess := tr.Session
	if len(sess.Messages) == 0 {
		return sess, ErrEmptyTranscript
	}

	if sess.ProjectPath == "" {
		sess.ProjectPath = s.resolve(ctx, filepath.Base(filepath.Dir(path)))
	} else {
		s.resolver.Register(sess.ProjectPath)
	}

	archived, err := s.isArchived(ctx, tr)
	if err != nil {
		return sess, err
	}
	sess.Archived = archived

	if err := s.sessions.Save(ctx, sess); err != nil {
		return sess, fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return sess, nil
}

// resolve decodes a project directory name, or returns "" when it cannot.
func (s *ImportService) resolve(ctx context.Context, encoded string) string {
	if s.unresolved != nil {
		if miss, err := s.unresolved.Has(ctx, encoded); err == nil && miss {
			return ""
		}
	}

	if p, ok := s.resolver.Resolve(encoded); ok {
		return p
	}

	s.log.Debug().Ctx(ctx).Str("dir", encoded).Msg("could not resolve project directory")
	if s.unresolved != nil {
		if err := s.unresolved.SetTTL(ctx, encoded, time.Now().UTC(), unresolvedTTL); err != nil {
			s.log.Warn().Err(err).Str("dir", encoded).Msg("failed to cache unresolved directory")
		}
	}
	return ""
}

func (s *ImportService) isArchived(ctx context.Context, tr claude.Transcript) (bool, error) {
	if s.archive == nil {
		return false, nil
	}
	for _, id := range []string{tr.CLISessionID, tr.Session.ID} {
		if id == "" {
			continue
		}
		ok, err := s.archive.IsArchived(ctx, id)
		if err != nil {
			return false, fmt.Errorf("check archive for %s: %w", id, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// seedResolver registers project paths of already imported sessions so
// decoding directory names rarely needs a filesystem search.
func (s *ImportService) seedResolver(ctx context.Context) error {
	existing, err := s.sessions.List(ctx)
	if err != nil {
		return err
	}
	for _, sess := range existing {
		s.resolver.Register(sess.ProjectPath)
	}
	return nil
}
