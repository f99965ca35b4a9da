package claude

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInstalled is returned when the claude executable cannot be found.
	ErrNotInstalled = errors.New("claude CLI not found: install Claude Code and make sure `claude` is on your PATH (or set claude.command)")

	// ErrTimeout is returned when the CLI does not finish within its deadline.
	ErrTimeout = errors.New("claude CLI timed out")

	// ErrMalformedResponse is returned when stdout is not the expected JSON
	// envelope or a suggestion inside it fails validation.
	ErrMalformedResponse = errors.New("malformed claude CLI response")

	// ErrMissingStructuredOutput is returned when the envelope parses but the
	// schema-constrained payload is absent.
	ErrMissingStructuredOutput = errors.New("claude CLI response has no structured_output")
)

// ExitError reports a non-zero exit from the CLI.
type ExitError struct {
	Code   int
	Stderr string // truncated to executil.MaxStderrLen bytes
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("claude CLI exited with code %d", e.Code)
	}
	return fmt.Sprintf("claude CLI exited with code %d: %s", e.Code, msg)
}

// ResultError reports an envelope with is_error set.
type ResultError struct {
	Subtype string
	Result  string
}

func (e *ResultError) Error() string {
	if e.Result == "" {
		return fmt.Sprintf("claude CLI reported an error (%s)", e.Subtype)
	}
	return fmt.Sprintf("claude CLI reported an error (%s): %s", e.Subtype, e.Result)
}
