package tagscan

import (
	"fmt"
	"slices"
	"strings"
)

// Prompt is an instruction plus the JSON schema the answer must satisfy.
type Prompt struct {
	Text   string
	Schema string
}

// BatchItem pairs a session ID with its gathered context.
type BatchItem struct {
	SessionID string
	Context   SessionContext
}

const tagItemSchema = `{"type":"object","properties":{"name":{"type":"string"},"confidence":{"type":"number","minimum":0,"maximum":1},"reasoning":{"type":"string"},"category":{"type":"string"}},"required":["name","confidence","reasoning"]}`

// SingleSchema constrains a single-session answer to {"tags": [...]}.
var SingleSchema = `{"type":"object","properties":{"tags":{"type":"array","items":` + tagItemSchema + `}},"required":["tags"]}`

// BatchSchema constrains a batch answer to {"sessions": [{"sessionId", "tags"}]}.
var BatchSchema = `{"type":"object","properties":{"sessions":{"type":"array","items":{"type":"object","properties":{"sessionId":{"type":"string"},"tags":{"type":"array","items":` + tagItemSchema + `}},"required":["sessionId","tags"]}}},"required":["sessions"]}`

const categories = "language, framework, task, domain, tool, other"

// BuildPrompt renders a single-session prompt. vocabulary is the set of tags
// already in use anywhere.
func BuildPrompt(sc SessionContext, vocabulary []string) Prompt {
	var b strings.Builder

	b.WriteString("You are tagging a conversation between a developer and a coding assistant.\n")
	b.WriteString("Suggest 3-5 short, lowercase, hyphenated tags that describe what the conversation is about.\n")
	b.WriteString("For each tag give a confidence between 0 and 1, a one-sentence reasoning, and a category (" + categories + ").\n")
	b.WriteString("Prefer reusing an existing tag over inventing a near-duplicate. Do not repeat tags the session already has.\n\n")

	if len(vocabulary) > 0 {
		fmt.Fprintf(&b, "Existing tags: %s\n\n", strings.Join(sortedUnique(vocabulary), ", "))
	}

	writeContext(&b, sc)

	return Prompt{Text: b.String(), Schema: SingleSchema}
}

// BuildBatchPrompt renders one prompt covering every item. The union of the
// items' existing tags is offered as shared vocabulary.
func BuildBatchPrompt(items []BatchItem) Prompt {
	var vocab []string
	for _, it := range items {
		vocab = append(vocab, it.Context.ExistingTags...)
	}

	var b strings.Builder

	b.WriteString("You are tagging several conversations between developers and a coding assistant.\n")
	b.WriteString("For EVERY session below suggest 3-5 short, lowercase, hyphenated tags.\n")
	b.WriteString("For each tag give a confidence between 0 and 1, a one-sentence reasoning, and a category (" + categories + ").\n")
	b.WriteString("Prefer reusing an existing tag over inventing a near-duplicate.\n")
	b.WriteString("Key each result by the exact session ID shown in its header. Return an entry for every session, with an empty tags list if nothing fits.\n\n")

	if len(vocab) > 0 {
		fmt.Fprintf(&b, "Existing tags: %s\n\n", strings.Join(sortedUnique(vocab), ", "))
	}

	for _, it := range items {
		fmt.Fprintf(&b, "=== SESSION %s ===\n", it.SessionID)
		writeContext(&b, it.Context)
		fmt.Fprintf(&b, "=== END SESSION %s ===\n\n", it.SessionID)
	}

	b.WriteString("Example output:\n")
	b.WriteString(`{"sessions":[{"sessionId":"<id>","tags":[{"name":"bug-fix","confidence":0.9,"reasoning":"Fixes a failing login handler","category":"task"}]}]}`)
	b.WriteString("\n")

	return Prompt{Text: b.String(), Schema: BatchSchema}
}

func writeContext(b *strings.Builder, sc SessionContext) {
	if sc.ProjectPath != "" {
		fmt.Fprintf(b, "Project: %s\n", sc.ProjectPath)
	}
	if len(sc.ExistingTags) > 0 {
		fmt.Fprintf(b, "Current tags: %s\n", strings.Join(sc.ExistingTags, ", "))
	}
	if len(sc.Tools) > 0 {
		fmt.Fprintf(b, "Tools used: %s\n", strings.Join(sc.Tools, ", "))
	}
	b.WriteString("Recent messages:\n")
	for _, m := range sc.Messages {
		fmt.Fprintf(b, "[%s] %s\n", m.Role, m.Content)
	}
}

func sortedUnique(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
