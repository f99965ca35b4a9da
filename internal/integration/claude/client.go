// Package claude drives the headless Claude Code CLI and reads its on-disk
// session transcripts.
package claude

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/goodvibes/internal/core/config"
	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/core/tagging"
	"github.com/colonyops/goodvibes/pkg/executil"
)

const archiveTimeout = 10 * time.Second

// Request is one headless CLI invocation.
type Request struct {
	Prompt  string
	Schema  string
	Model   string        // optional --model override
	Timeout time.Duration // zero uses the single-session timeout
}

// Client invokes the CLI through an executil.Executor.
type Client struct {
	exec     executil.Executor
	cfg      config.ClaudeConfig
	archiver Archiver
	log      zerolog.Logger

	archives sync.WaitGroup
}

// NewClient creates a client. archiver may be nil to skip archiving.
func NewClient(exec executil.Executor, cfg config.ClaudeConfig, archiver Archiver) *Client {
	return &Client{
		exec:     exec,
		cfg:      cfg,
		archiver: archiver,
		log:      logging.Component("claude"),
	}
}

// Invoke runs the CLI and returns its raw stdout. The process is killed when
// the request timeout expires.
//
// The conversation ID is chosen up front and archived before the process
// starts: the CLI writes its transcript while it runs, and a watcher importing
// that file must already see it as archived.
func (c *Client) Invoke(ctx context.Context, req Request) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}

	cliSessionID := uuid.NewString()
	c.preArchive(ctx, cliSessionID)

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	started := time.Now()
	err := c.exec.RunStream(tctx, &stdout, executil.LimitWriter(&stderr, executil.MaxStderrLen), c.cfg.Command, c.args(req, cliSessionID)...)

	c.log.Debug().Ctx(ctx).
		Dur("elapsed", time.Since(started)).
		Int("stdout_bytes", stdout.Len()).
		Err(err).
		Msg("claude CLI finished")

	if err != nil {
		return nil, c.classify(ctx, tctx, err, stderr.String(), timeout)
	}
	return stdout.Bytes(), nil
}

func (c *Client) args(req Request, cliSessionID string) []string {
	args := []string{
		"-p", req.Prompt,
		"--output-format", "json",
		"--json-schema", req.Schema,
		"--session-id", cliSessionID,
	}
	if len(c.cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(c.cfg.AllowedTools, ","))
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	return args
}

func (c *Client) classify(parent, tctx context.Context, err error, stderr string, timeout time.Duration) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ErrNotInstalled
	case parent.Err() != nil:
		return fmt.Errorf("claude CLI: %w", parent.Err())
	case errors.Is(tctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("run claude CLI: %w", err)
}

// Suggest asks for tags for one session.
func (c *Client) Suggest(ctx context.Context, prompt, schema string) ([]tagging.Candidate, error) {
	raw, err := c.Invoke(ctx, Request{Prompt: prompt, Schema: schema, Timeout: c.cfg.Timeout})
	if err != nil {
		return nil, err
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	candidates, err := parseSuggestions(env, c.log)
	if err != nil {
		return nil, err
	}

	c.archive(env.SessionID)
	return candidates, nil
}

// SuggestBatch asks for tags for several sessions in one invocation. The
// result holds every id in ids.
func (c *Client) SuggestBatch(ctx context.Context, prompt, schema string, ids []string) (map[string][]tagging.Candidate, error) {
	raw, err := c.Invoke(ctx, Request{
		Prompt:  prompt,
		Schema:  schema,
		Model:   c.cfg.BatchModel,
		Timeout: c.cfg.BatchTimeout,
	})
	if err != nil {
		return nil, err
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	results, err := parseBatchSuggestions(env, ids, c.log)
	if err != nil {
		return nil, err
	}

	c.archive(env.SessionID)
	return results, nil
}

func (c *Client) preArchive(ctx context.Context, cliSessionID string) {
	if c.archiver == nil {
		return
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := c.archiver.Archive(actx, cliSessionID); err != nil {
		c.log.Warn().Err(err).Str("cli_session_id", cliSessionID).Msg("failed to archive claude CLI session")
	}
}

// archive records the CLI's own conversation in the background so importing
// it later does not surface a tagging prompt as a user session. This covers
// CLI builds that ignore --session-id and report their own ID.
func (c *Client) archive(cliSessionID string) {
	if c.archiver == nil || cliSessionID == "" {
		return
	}

	c.archives.Add(1)
	go func() {
		defer c.archives.Done()

		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := c.archiver.Archive(ctx, cliSessionID); err != nil {
			c.log.Warn().Err(err).Str("cli_session_id", cliSessionID).Msg("failed to archive claude CLI session")
		}
	}()
}

// Wait blocks until background archive calls have finished.
func (c *Client) Wait() {
	c.archives.Wait()
}
