// Package tagscan schedules background tag-suggestion scans: a priority queue
// drained in batches on a fixed poll interval, throttled by a token bucket.
package tagscan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/goodvibes/internal/core/config"
	"github.com/colonyops/goodvibes/internal/core/eventbus"
	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/core/session"
	"github.com/colonyops/goodvibes/internal/core/tagging"
)

// ErrNoContext is returned when a session has nothing worth tagging.
var ErrNoContext = errors.New("session has no usable content")

// ErrArchived is returned when asked to scan a session goodvibes created
// itself.
var ErrArchived = errors.New("session is archived")

const gatherConcurrency = 4

// Store is the slice of the session store the scanner uses.
type Store interface {
	Get(ctx context.Context, id string) (session.Session, error)
	PendingIDs(ctx context.Context) ([]string, error)
	CountPending(ctx context.Context) (int, error)
	UpdateScanStatus(ctx context.Context, id string, status session.ScanStatus, depth session.ScanDepth) error
	TagNames(ctx context.Context) ([]string, error)
}

// SuggestionWriter persists suggestions.
type SuggestionWriter interface {
	Create(ctx context.Context, records []tagging.NewRecord) ([]tagging.Suggestion, error)
}

// Settings exposes the runtime scan toggles.
type Settings interface {
	RateLimitEnabled(ctx context.Context) (bool, error)
	ScanAgentSessions(ctx context.Context) (bool, error)
}

// Suggester produces tag candidates. *claude.Client implements it.
type Suggester interface {
	Suggest(ctx context.Context, prompt, schema string) ([]tagging.Candidate, error)
	SuggestBatch(ctx context.Context, prompt, schema string, ids []string) (map[string][]tagging.Candidate, error)
}

// Scanner owns the scan queue and rate limiter and drives them from a poll
// loop. Construct one per process.
type Scanner struct {
	sessions    Store
	suggestions SuggestionWriter
	settings    Settings
	client      Suggester
	bus         *eventbus.EventBus
	cfg         config.TagScanConfig
	log         zerolog.Logger

	queue   *Queue
	limiter *RateLimiter

	mu              sync.Mutex
	running         bool
	paused          bool
	processingBatch bool
	scannedCount    int
	totalToScan     int
	currentSession  string
	lastError       string
	stop            chan struct{}
	done            chan struct{}
}

// New creates a stopped scanner.
func New(
	sessions Store,
	suggestions SuggestionWriter,
	settings Settings,
	client Suggester,
	bus *eventbus.EventBus,
	cfg config.TagScanConfig,
) *Scanner {
	return &Scanner{
		sessions:    sessions,
		suggestions: suggestions,
		settings:    settings,
		client:      client,
		bus:         bus,
		cfg:         cfg,
		log:         logging.Component("tagscan"),
		queue:       NewQueue(),
		limiter:     NewRateLimiter(cfg.RateLimit.MaxTokens, cfg.RateLimit.RefillInterval),
	}
}

// Start launches the poll loop. ctx bounds the loop and every scan it runs;
// Stop ends the loop without cancelling a batch already in flight.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn().Msg("scanner already running")
		return
	}
	s.running = true
	s.paused = false
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.log.Info().Dur("poll_interval", s.cfg.PollInterval).Int("batch_size", s.cfg.BatchSize).Msg("scanner started")
	s.publishStatus(ctx)

	go s.loop(ctx, stop, done)
}

func (s *Scanner) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		case <-stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop ends the poll loop. The queue is kept.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.log.Warn().Msg("scanner not running")
		return
	}
	s.running = false
	s.paused = false
	s.processingBatch = false
	close(s.stop)
	s.mu.Unlock()

	s.log.Info().Int("queued", s.queue.Size()).Msg("scanner stopped")
	s.publishStatus(context.Background())
}

// Wait blocks until the poll loop has exited, including any batch that was in
// flight when Stop was called.
func (s *Scanner) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Pause makes ticks no-ops until Resume.
func (s *Scanner) Pause() {
	s.mu.Lock()
	if !s.running || s.paused {
		s.mu.Unlock()
		s.log.Warn().Msg("pause ignored: scanner is not running or already paused")
		return
	}
	s.paused = true
	s.mu.Unlock()

	s.log.Info().Msg("scanner paused")
	s.publishStatus(context.Background())
}

// Resume lets the next tick drain the queue again.
func (s *Scanner) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		s.log.Warn().Msg("resume ignored: scanner is not paused")
		return
	}
	s.paused = false
	s.mu.Unlock()

	s.log.Info().Msg("scanner resumed")
	s.publishStatus(context.Background())
}

// tick drains one batch if the scanner is idle, unpaused and, when rate
// limiting is on, a token is available.
func (s *Scanner) tick(ctx context.Context) {
	if !s.ready() {
		return
	}
	rateLimited := s.rateLimitEnabled(ctx)

	s.mu.Lock()
	if !s.readyLocked() {
		s.mu.Unlock()
		return
	}
	if rateLimited && !s.limiter.TryConsume() {
		s.mu.Unlock()
		s.log.Debug().Dur("next_token_in", s.limiter.TimeUntilNextToken()).Msg("rate limited, skipping tick")
		return
	}
	s.processingBatch = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processingBatch = false
		s.currentSession = ""
		s.mu.Unlock()
		s.publishStatus(ctx)
	}()

	items := s.queue.DequeueN(s.cfg.BatchSize)
	if len(items) == 0 {
		return
	}
	s.bus.PublishQueueChanged(eventbus.QueueChangedPayload{Size: s.queue.Size()})

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.SessionID
	}

	s.mu.Lock()
	s.currentSession = ids[0]
	s.mu.Unlock()
	s.publishStatus(ctx)

	if err := s.ScanBatch(ctx, ids); err != nil {
		s.log.Error().Err(err).Strs("session_ids", ids).Msg("batch scan failed")
	}
}

func (s *Scanner) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func (s *Scanner) readyLocked() bool {
	return s.running && !s.paused && !s.processingBatch && !s.queue.IsEmpty()
}

type gathered struct {
	id       string
	missing  bool
	archived bool
	sc       SessionContext
	ok       bool
}

// ScanBatch scans ids with one CLI invocation. Sessions that are not in the
// store or are archived are skipped; sessions without usable content are
// marked failed. A
// client failure marks every attempted session failed and is returned.
func (s *Scanner) ScanBatch(ctx context.Context, ids []string) error {
	batchID := uuid.NewString()
	ctx = logging.WithBatchID(ctx, batchID)

	results := make([]gathered, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gatherConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i].id = id
			sess, err := s.sessions.Get(gctx, id)
			if errors.Is(err, session.ErrNotFound) {
				results[i].missing = true
				return nil
			}
			if err != nil {
				return fmt.Errorf("load session %s: %w", id, err)
			}
			if sess.Archived {
				results[i].archived = true
				return nil
			}
			results[i].sc, results[i].ok = GatherContext(sess)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.recordError(ctx, err, "")
		return err
	}

	var (
		items     []BatchItem
		attempted []string
	)
	for _, r := range results {
		switch {
		case r.missing:
			s.log.Debug().Ctx(ctx).Str("session_id", r.id).Msg("session not in store, skipping")
		case r.archived:
			s.log.Debug().Ctx(ctx).Str("session_id", r.id).Msg("session is archived, skipping")
		case !r.ok:
			s.log.Warn().Ctx(ctx).Str("session_id", r.id).Msg("session has no usable content, marking failed")
			s.markFailed(ctx, r.id)
		default:
			items = append(items, BatchItem{SessionID: r.id, Context: r.sc})
			attempted = append(attempted, r.id)
		}
	}
	if len(items) == 0 {
		return nil
	}

	s.log.Info().Ctx(ctx).Int("sessions", len(items)).Msg("scanning batch")

	prompt := BuildBatchPrompt(items)
	byID, err := s.client.SuggestBatch(ctx, prompt.Text, prompt.Schema, attempted)
	if err != nil {
		for _, id := range attempted {
			s.markFailed(ctx, id)
		}
		err = fmt.Errorf("scan batch %s: %w", batchID, err)
		s.recordError(ctx, err, "")
		return err
	}

	for _, id := range attempted {
		sctx := logging.WithSessionID(ctx, id)
		if _, err := s.complete(sctx, id, byID[id]); err != nil {
			s.markFailed(sctx, id)
			s.recordError(sctx, err, id)
		}
	}

	s.bus.PublishProgress(eventbus.ProgressPayload{Progress: s.Progress(ctx)})
	return nil
}

// ScanSession scans one session immediately, bypassing the queue and the
// rate limiter. Every failure is recorded and emitted before it is returned.
func (s *Scanner) ScanSession(ctx context.Context, id string) ([]tagging.Suggestion, error) {
	ctx = logging.WithSessionID(ctx, id)

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		err = fmt.Errorf("load session %s: %w", id, err)
		s.recordError(ctx, err, id)
		return nil, err
	}
	if sess.Archived {
		err = fmt.Errorf("scan %s: %w", id, ErrArchived)
		s.recordError(ctx, err, id)
		return nil, err
	}

	sc, ok := GatherContext(sess)
	if !ok {
		s.markFailed(ctx, id)
		err = fmt.Errorf("scan %s: %w", id, ErrNoContext)
		s.recordError(ctx, err, id)
		return nil, err
	}

	vocabulary, err := s.sessions.TagNames(ctx)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("failed to load tag vocabulary")
	}
	vocabulary = append(vocabulary, sc.ExistingTags...)

	s.mu.Lock()
	s.currentSession = id
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.currentSession == id {
			s.currentSession = ""
		}
		s.mu.Unlock()
	}()

	prompt := BuildPrompt(sc, vocabulary)
	candidates, err := s.client.Suggest(ctx, prompt.Text, prompt.Schema)
	if err != nil {
		s.markFailed(ctx, id)
		err = fmt.Errorf("scan %s: %w", id, err)
		s.recordError(ctx, err, id)
		return nil, err
	}

	suggestions, err := s.complete(ctx, id, candidates)
	if err != nil {
		s.markFailed(ctx, id)
		s.recordError(ctx, err, id)
		return nil, err
	}
	return suggestions, nil
}

// complete persists candidates for id and marks it scanned.
func (s *Scanner) complete(ctx context.Context, id string, candidates []tagging.Candidate) ([]tagging.Suggestion, error) {
	var suggestions []tagging.Suggestion
	if len(candidates) > 0 {
		records := make([]tagging.NewRecord, len(candidates))
		for i, c := range candidates {
			records[i] = tagging.NewRecord{SessionID: id, Candidate: c}
		}
		var err error
		suggestions, err = s.suggestions.Create(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("save suggestions for %s: %w", id, err)
		}
	}

	if err := s.sessions.UpdateScanStatus(ctx, id, session.ScanCompleted, session.DepthQuick); err != nil {
		return nil, fmt.Errorf("mark %s completed: %w", id, err)
	}

	s.mu.Lock()
	s.scannedCount++
	s.mu.Unlock()

	s.log.Info().Ctx(ctx).Int("suggestions", len(suggestions)).Msg("session scanned")
	s.bus.PublishComplete(eventbus.CompletePayload{SessionID: id, Suggestions: suggestions})
	return suggestions, nil
}

func (s *Scanner) markFailed(ctx context.Context, id string) {
	if err := s.sessions.UpdateScanStatus(ctx, id, session.ScanFailed, session.DepthQuick); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Str("session_id", id).Msg("failed to mark session failed")
	}
}

// recordError keeps only the most recent failure.
func (s *Scanner) recordError(ctx context.Context, err error, sessionID string) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()

	s.log.Error().Ctx(ctx).Err(err).Msg("scan failed")
	s.bus.PublishError(eventbus.ErrorPayload{Err: err, SessionID: sessionID})
}

// QueueSession adds a session to the queue. It returns false when the
// session was already queued.
func (s *Scanner) QueueSession(id string, priority Priority) bool {
	if !s.queue.Enqueue(id, priority) {
		return false
	}
	s.bus.PublishQueueChanged(eventbus.QueueChangedPayload{Size: s.queue.Size()})
	return true
}

// Unqueue drops a queued session. It returns false when it was not queued.
func (s *Scanner) Unqueue(id string) bool {
	if !s.queue.Remove(id) {
		return false
	}
	s.bus.PublishQueueChanged(eventbus.QueueChangedPayload{Size: s.queue.Size()})
	return true
}

// QueueAllPending queues every session the store reports as pending. Agent
// sessions are queued at low priority only when the agent setting is on;
// sessions under an excluded project are skipped. Returns the number queued.
func (s *Scanner) QueueAllPending(ctx context.Context) (int, error) {
	ids, err := s.sessions.PendingIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending sessions: %w", err)
	}

	scanAgents, err := s.settings.ScanAgentSessions(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read agent scan setting, skipping agent sessions")
		scanAgents = false
	}

	queued := 0
	for _, id := range ids {
		priority := PriorityMedium
		if session.IsAgentID(id) {
			if !scanAgents {
				continue
			}
			priority = PriorityLow
		}

		if len(s.cfg.ExcludeProjects) > 0 {
			excluded, err := s.excluded(ctx, id)
			if err != nil {
				s.log.Warn().Err(err).Str("session_id", id).Msg("failed to check project exclusion")
				continue
			}
			if excluded {
				continue
			}
		}

		if s.queue.Enqueue(id, priority) {
			queued++
		}
	}

	s.log.Info().Int("pending", len(ids)).Int("queued", queued).Msg("queued pending sessions")
	s.bus.PublishQueueChanged(eventbus.QueueChangedPayload{Size: s.queue.Size()})
	return queued, nil
}

func (s *Scanner) excluded(ctx context.Context, id string) (bool, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if sess.ProjectPath == "" {
		return false, nil
	}
	for _, pattern := range s.cfg.ExcludeProjects {
		if ok, _ := doublestar.Match(pattern, sess.ProjectPath); ok {
			return true, nil
		}
	}
	return false, nil
}

// ScanAll queues every pending session, resets the run counters and starts
// the poll loop.
func (s *Scanner) ScanAll(ctx context.Context) (int, error) {
	if _, err := s.QueueAllPending(ctx); err != nil {
		return 0, err
	}

	total := s.queue.Size()
	s.mu.Lock()
	s.totalToScan = total
	s.scannedCount = 0
	s.lastError = ""
	s.mu.Unlock()

	s.Start(ctx)
	return total, nil
}

// Idle reports whether the queue is empty and no batch is in flight.
func (s *Scanner) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.processingBatch && s.queue.IsEmpty()
}

// Queue exposes the queue for inspection.
func (s *Scanner) Queue() []QueueItem {
	return s.queue.All()
}

func (s *Scanner) rateLimitEnabled(ctx context.Context) bool {
	enabled, err := s.settings.RateLimitEnabled(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read rate limit setting, assuming enabled")
		return true
	}
	return enabled
}

// total is the live pending count when rate limiting is off and the total
// frozen by ScanAll otherwise.
func (s *Scanner) total(ctx context.Context, rateLimited bool, frozen int) int {
	if rateLimited {
		return frozen
	}
	n, err := s.sessions.CountPending(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to count pending sessions")
		return frozen
	}
	return n
}

// Status returns a snapshot of the scanner state.
func (s *Scanner) Status(ctx context.Context) tagging.ScannerStatus {
	rateLimited := s.rateLimitEnabled(ctx)

	s.mu.Lock()
	st := tagging.ScannerStatus{
		Running:          s.running,
		Paused:           s.paused,
		ProcessingBatch:  s.processingBatch,
		ScannedCount:     s.scannedCount,
		CurrentSessionID: s.currentSession,
		LastError:        s.lastError,
		RateLimitEnabled: rateLimited,
	}
	frozen := s.totalToScan
	s.mu.Unlock()

	st.QueueSize = s.queue.Size()
	st.TotalToScan = s.total(ctx, rateLimited, frozen)
	st.RateLimitRemaining = s.limiter.Remaining()
	return st
}

// Progress returns run progress with an estimated time to drain the queue.
func (s *Scanner) Progress(ctx context.Context) tagging.Progress {
	rateLimited := s.rateLimitEnabled(ctx)

	s.mu.Lock()
	p := tagging.Progress{
		Scanned:          s.scannedCount,
		CurrentSessionID: s.currentSession,
	}
	frozen := s.totalToScan
	s.mu.Unlock()

	p.QueueSize = s.queue.Size()
	p.Total = s.total(ctx, rateLimited, frozen)
	p.EstimatedTime = s.estimate(p.QueueSize, rateLimited)
	return p
}

// estimate is a two-phase guess. With more tokens than queued sessions it is
// one poll interval per batch. Otherwise it is the batches the current tokens
// cover, plus the wait for the next refill, plus the batches after it.
func (s *Scanner) estimate(queueSize int, rateLimited bool) time.Duration {
	if queueSize == 0 {
		return 0
	}
	batchSize := max(s.cfg.BatchSize, 1)
	batches := (queueSize + batchSize - 1) / batchSize
	poll := s.cfg.PollInterval

	if !rateLimited {
		return time.Duration(batches) * poll
	}

	remaining := s.limiter.Remaining()
	if remaining > queueSize {
		return time.Duration(batches) * poll
	}

	covered := min(remaining, batches)
	before := time.Duration(covered) * poll
	after := time.Duration(batches-covered) * poll
	return before + s.limiter.untilRefill() + after
}

func (s *Scanner) publishStatus(ctx context.Context) {
	s.bus.PublishStatusChanged(eventbus.StatusChangedPayload{Status: s.Status(ctx)})
}
