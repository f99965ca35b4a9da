package tagscan

import (
	"strings"
	"unicode/utf8"

	"github.com/colonyops/goodvibes/internal/core/session"
)

const (
	maxExcerpts   = 6
	maxExcerptLen = 500
)

// Excerpt is one trimmed conversation turn.
type Excerpt struct {
	Role    string
	Content string
}

// SessionContext is the compact view of a session that goes into a prompt.
type SessionContext struct {
	ProjectPath  string
	Messages     []Excerpt
	Tools        []string
	ExistingTags []string
}

// GatherContext summarizes sess for prompting. It returns false when the
// session has no message content worth tagging.
func GatherContext(sess session.Session) (SessionContext, bool) {
	sc := SessionContext{
		ProjectPath:  sess.ProjectPath,
		ExistingTags: append([]string(nil), sess.Tags...),
	}

	seen := make(map[string]struct{})
	for _, m := range sess.Messages {
		for _, tool := range m.Tools {
			if _, ok := seen[tool]; ok {
				continue
			}
			seen[tool] = struct{}{}
			sc.Tools = append(sc.Tools, tool)
		}
	}

	// Walk backwards for the most recent turns, then restore order.
	for i := len(sess.Messages) - 1; i >= 0 && len(sc.Messages) < maxExcerpts; i-- {
		m := sess.Messages[i]
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		sc.Messages = append(sc.Messages, Excerpt{Role: m.Role, Content: clip(content, maxExcerptLen)})
	}
	for i, j := 0, len(sc.Messages)-1; i < j; i, j = i+1, j-1 {
		sc.Messages[i], sc.Messages[j] = sc.Messages[j], sc.Messages[i]
	}

	return sc, len(sc.Messages) > 0
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
