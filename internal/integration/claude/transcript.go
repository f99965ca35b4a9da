package claude

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/colonyops/goodvibes/internal/core/session"
)

const (
	maxLineSize   = 16 * 1024 * 1024
	maxTitleLen   = 80
	transcriptExt = ".jsonl"
)

type transcriptLine struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	Cwd       string    `json:"cwd"`
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
	Message   struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name"`
}

// Transcript is a parsed transcript file.
type Transcript struct {
	Session session.Session
	// CLISessionID is the sessionId recorded inside the file. It normally
	// equals Session.ID.
	CLISessionID string
	Path         string
}

// IsTranscriptFile reports whether path looks like a session transcript.
func IsTranscriptFile(path string) bool {
	return filepath.Ext(path) == transcriptExt
}

// SessionIDFromPath returns the session ID encoded in a transcript filename.
func SessionIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), transcriptExt)
}

// ParseTranscript reads a Claude Code JSONL transcript. Unreadable lines are
// skipped. The returned session has no scan state; the store assigns it.
func ParseTranscript(path string) (Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return Transcript{}, err
	}
	defer func() { _ = f.Close() }()

	t := Transcript{
		Path:    path,
		Session: session.Session{ID: SessionIDFromPath(path)},
	}

	var firstUser string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry transcriptLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		if entry.SessionID != "" && t.CLISessionID == "" {
			t.CLISessionID = entry.SessionID
		}
		if entry.Cwd != "" && t.Session.ProjectPath == "" {
			t.Session.ProjectPath = entry.Cwd
		}
		if !entry.Timestamp.IsZero() {
			if t.Session.CreatedAt.IsZero() || entry.Timestamp.Before(t.Session.CreatedAt) {
				t.Session.CreatedAt = entry.Timestamp
			}
			if entry.Timestamp.After(t.Session.UpdatedAt) {
				t.Session.UpdatedAt = entry.Timestamp
			}
		}

		switch entry.Type {
		case "summary":
			if entry.Summary != "" {
				t.Session.Title = entry.Summary
			}
		case "user", "assistant":
			msg, ok := toMessage(entry)
			if !ok {
				continue
			}
			if msg.Role == "user" && firstUser == "" && msg.Content != "" {
				firstUser = msg.Content
			}
			t.Session.Messages = append(t.Session.Messages, msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return Transcript{}, fmt.Errorf("read transcript %s: %w", path, err)
	}

	if t.Session.Title == "" {
		t.Session.Title = truncateRunes(strings.Join(strings.Fields(firstUser), " "), maxTitleLen)
	}
	if t.Session.UpdatedAt.IsZero() {
		if info, err := f.Stat(); err == nil {
			t.Session.UpdatedAt = info.ModTime()
			t.Session.CreatedAt = info.ModTime()
		}
	}

	return t, nil
}

func toMessage(entry transcriptLine) (session.Message, bool) {
	role := entry.Message.Role
	if role == "" {
		role = entry.Type
	}
	msg := session.Message{Role: role, Timestamp: entry.Timestamp}

	content := bytes.TrimSpace(entry.Message.Content)
	switch {
	case len(content) == 0:
		return msg, false
	case content[0] == '"':
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return msg, false
		}
		msg.Content = strings.TrimSpace(s)
	case content[0] == '[':
		var blocks []contentBlock
		if err := json.Unmarshal(content, &blocks); err != nil {
			return msg, false
		}
		var texts []string
		for _, b := range blocks {
			switch b.Type {
			case "text":
				if s := strings.TrimSpace(b.Text); s != "" {
					texts = append(texts, s)
				}
			case "tool_use":
				if b.Name != "" {
					msg.Tools = append(msg.Tools, b.Name)
				}
			}
		}
		msg.Content = strings.Join(texts, "\n")
	default:
		return msg, false
	}

	if msg.Content == "" && len(msg.Tools) == 0 {
		return msg, false
	}
	return msg, true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
