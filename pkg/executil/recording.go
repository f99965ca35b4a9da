package executil

import (
	"context"
	"io"
	"sync"
)

// RecordedCommand is one invocation seen by a RecordingExecutor.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// RecordingExecutor is a test double. Outputs, Stderr and Errors are keyed by
// command name and control what each call produces.
type RecordingExecutor struct {
	Outputs map[string][]byte
	Stderr  map[string][]byte
	Errors  map[string]error

	mu       sync.Mutex
	commands []RecordedCommand
}

func (e *RecordingExecutor) RunStream(_ context.Context, stdout, stderr io.Writer, cmd string, args ...string) error {
	e.mu.Lock()
	e.commands = append(e.commands, RecordedCommand{Cmd: cmd, Args: append([]string(nil), args...)})
	e.mu.Unlock()

	if out := e.Outputs[cmd]; stdout != nil && len(out) > 0 {
		_, _ = stdout.Write(out)
	}
	if errOut := e.Stderr[cmd]; stderr != nil && len(errOut) > 0 {
		_, _ = stderr.Write(errOut)
	}
	return e.Errors[cmd]
}

// Recorded returns a copy of the commands run so far.
func (e *RecordingExecutor) Recorded() []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RecordedCommand(nil), e.commands...)
}
