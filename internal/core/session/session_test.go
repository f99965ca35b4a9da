package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAgentID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{id: "agent-1234", want: true},
		{id: "agent-", want: true},
		{id: "3f1c9a2e-agent", want: false},
		{id: "Agent-1234", want: false},
		{id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAgentID(tt.id))
			s := Session{ID: tt.id}
			assert.Equal(t, tt.want, s.IsAgent())
		})
	}
}

func TestSession_AddTag(t *testing.T) {
	s := Session{Tags: []string{"bug"}}

	assert.False(t, s.AddTag("BUG"), "tags compare case-insensitively")
	assert.False(t, s.AddTag("   "), "blank tags are ignored")
	assert.True(t, s.AddTag(" refactor "))

	assert.Equal(t, []string{"bug", "refactor"}, s.Tags)
	assert.True(t, s.HasTag("Refactor"))
}

func TestScanStatus_IsValid(t *testing.T) {
	assert.True(t, ScanPending.IsValid())
	assert.True(t, ScanCompleted.IsValid())
	assert.True(t, ScanFailed.IsValid())
	assert.False(t, ScanStatus("running").IsValid())
}
