package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_PlainOutputWhenNotATerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	p := New(&out, &errOut)

	p.Successf("imported %d", 3)
	p.Infof("queued")
	p.Warnf("careful")
	p.Errorf("broke: %s", "x")

	assert.Equal(t, "✔ imported 3\n• queued\n", out.String())
	assert.Equal(t, "! careful\n✘ broke: x\n", errOut.String())
}

func TestPrinter_Table(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &out)

	p.Table([]string{"ID", "NAME"}, [][]string{
		{"s1", "http"},
		{"session-22", "retries"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID          NAME", lines[0])
	assert.Equal(t, "s1          http", lines[1])
	assert.Equal(t, "session-22  retries", lines[2])
}

func TestCtx(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &out)

	ctx := NewContext(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}

func TestWidth_NonTerminal(t *testing.T) {
	assert.Equal(t, 0, Width(&bytes.Buffer{}))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
