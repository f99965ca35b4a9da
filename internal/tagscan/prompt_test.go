package tagscan

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasAreValidJSON(t *testing.T) {
	for name, schema := range map[string]string{"single": SingleSchema, "batch": BatchSchema} {
		var v map[string]any
		require.NoError(t, json.Unmarshal([]byte(schema), &v), name)
	}
}

func TestBuildPrompt(t *testing.T) {
	sc := SessionContext{
		ProjectPath:  "/work/api",
		Messages:     []Excerpt{{Role: "user", Content: "login returns 500"}},
		Tools:        []string{"Read"},
		ExistingTags: []string{"bug"},
	}

	p := BuildPrompt(sc, []string{"refactor", "bug", "Bug", ""})

	assert.Equal(t, SingleSchema, p.Schema)
	assert.Contains(t, p.Text, "3-5")
	assert.Contains(t, p.Text, "Existing tags: bug, refactor\n")
	assert.Contains(t, p.Text, "Project: /work/api")
	assert.Contains(t, p.Text, "Tools used: Read")
	assert.Contains(t, p.Text, "[user] login returns 500")
}

func TestBuildBatchPrompt(t *testing.T) {
	items := []BatchItem{
		{SessionID: "s1", Context: SessionContext{ExistingTags: []string{"go"}, Messages: []Excerpt{{Role: "user", Content: "one"}}}},
		{SessionID: "s2", Context: SessionContext{ExistingTags: []string{"css", "go"}, Messages: []Excerpt{{Role: "user", Content: "two"}}}},
	}

	p := BuildBatchPrompt(items)

	assert.Equal(t, BatchSchema, p.Schema)
	assert.Contains(t, p.Text, "Existing tags: css, go\n")
	assert.Contains(t, p.Text, "=== SESSION s1 ===")
	assert.Contains(t, p.Text, "=== SESSION s2 ===")
	assert.Less(t, strings.Index(p.Text, "one"), strings.Index(p.Text, "two"))
	assert.Contains(t, p.Text, `"sessionId"`, "includes an example")
	assert.Contains(t, p.Text, "exact session ID")
}
