// Package printer writes human-oriented command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type ctxKey struct{}

// Printer renders styled status lines and tables. Styles degrade to plain
// text when the writer is not a terminal.
type Printer struct {
	out io.Writer
	err io.Writer

	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	errSt   lipgloss.Style
	header  lipgloss.Style
	muted   lipgloss.Style
}

// New creates a printer writing normal output to out and errors to errOut.
func New(out, errOut io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		err:     errOut,
		success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		errSt:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		header:  r.NewStyle().Bold(true).Underline(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stdout/stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

// Writer returns the normal output writer.
func (p *Printer) Writer() io.Writer { return p.out }

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.success.Render("✔"), fmt.Sprintf(format, args...))
}

func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.info.Render("•"), fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.err, "%s %s\n", p.warn.Render("!"), fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.err, "%s %s\n", p.errSt.Render("✘"), fmt.Sprintf(format, args...))
}

// Muted renders s in a dim style.
func (p *Printer) Muted(s string) string {
	return p.muted.Render(s)
}

// Table prints rows under a styled header. Columns are padded to the widest
// cell and the last column is cut to the terminal width.
func (p *Printer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	maxLast := 0
	if w := Width(p.out); w > 0 {
		used := 0
		for _, cw := range widths[:len(widths)-1] {
			used += cw + 2
		}
		maxLast = max(w-used, 10)
	}

	line := func(cells []string, style *lipgloss.Style) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				if maxLast > 0 && lipgloss.Width(cell) > maxLast {
					cell = truncate(cell, maxLast)
				}
			} else {
				cell += strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2)
			}
			b.WriteString(cell)
		}
		s := strings.TrimRight(b.String(), " ")
		if style != nil {
			s = style.Render(s)
		}
		_, _ = fmt.Fprintln(p.out, s)
	}

	line(headers, &p.header)
	for _, row := range rows {
		line(row, nil)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or 0 when w is not a terminal.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
