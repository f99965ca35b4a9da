// Package executil runs external processes behind a small interface so callers
// can be tested without spawning anything.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is
// killed; grandchildren that inherit stdout would otherwise hold it open.
const waitDelay = 2 * time.Second

// MaxStderrLen is how much stderr callers keep for error messages.
const MaxStderrLen = 500

// Executor runs an external command, streaming its output to the writers.
type Executor interface {
	RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error
}

// RealExecutor spawns processes with os/exec. Returned errors wrap
// *exec.ExitError or *exec.Error, so errors.Is(err, exec.ErrNotFound) works.
type RealExecutor struct{}

// RunStream runs cmd to completion. The process is killed when ctx is done.
func (e *RealExecutor) RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = waitDelay

	start := time.Now()
	err := c.Run()
	log.Debug().
		Str("cmp", "exec").
		Str("cmd", cmd).
		Int("args", len(args)).
		Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).
		Msg("command finished")

	if err != nil {
		return fmt.Errorf("exec %s: %w", cmd, err)
	}
	return nil
}

// LimitWriter stores at most max bytes in buf and silently drops the rest.
// It never returns a short write, so a chatty process is not failed by its
// own output.
func LimitWriter(buf *bytes.Buffer, max int) io.Writer {
	return &limitedWriter{buf: buf, left: max}
}

type limitedWriter struct {
	buf  *bytes.Buffer
	left int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.left > 0 {
		chunk := p[:min(len(p), w.left)]
		n, err := w.buf.Write(chunk)
		w.left -= n
		if err != nil {
			return n, err
		}
	}
	return len(p), nil
}
