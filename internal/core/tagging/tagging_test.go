package tagging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Candidate
		wantErr string
	}{
		{name: "valid", c: Candidate{Name: "bug-fix", Confidence: 0.9, Reasoning: "fixed a bug"}},
		{name: "confidence zero is inclusive", c: Candidate{Name: "a", Confidence: 0, Reasoning: "r"}},
		{name: "confidence one is inclusive", c: Candidate{Name: "a", Confidence: 1, Reasoning: "r"}},
		{name: "confidence above one", c: Candidate{Name: "a", Confidence: 1.2, Reasoning: "r"}, wantErr: "within [0,1]"},
		{name: "confidence below zero", c: Candidate{Name: "a", Confidence: -0.1, Reasoning: "r"}, wantErr: "within [0,1]"},
		{name: "confidence NaN", c: Candidate{Name: "a", Confidence: math.NaN(), Reasoning: "r"}, wantErr: "finite"},
		{name: "confidence Inf", c: Candidate{Name: "a", Confidence: math.Inf(1), Reasoning: "r"}, wantErr: "finite"},
		{name: "blank name", c: Candidate{Name: "   ", Confidence: 0.5, Reasoning: "r"}, wantErr: "name is required"},
		{name: "blank reasoning", c: Candidate{Name: "a", Confidence: 0.5, Reasoning: " \t"}, wantErr: "reasoning is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCandidate_Normalize(t *testing.T) {
	c := Candidate{Name: "  testing ", Reasoning: " adds tests ", Confidence: 0.4}.Normalize()

	assert.Equal(t, "testing", c.Name)
	assert.Equal(t, "adds tests", c.Reasoning)
	assert.Equal(t, DefaultCategory, c.Category)

	c = Candidate{Name: "go", Reasoning: "r", Category: "language"}.Normalize()
	assert.Equal(t, "language", c.Category)
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.IsResolved())
	assert.True(t, StatusAccepted.IsResolved())
	assert.True(t, StatusRejected.IsResolved())
	assert.True(t, StatusDismissed.IsResolved())
	assert.False(t, Status("bogus").IsValid())
}

func TestProgress_Percent(t *testing.T) {
	assert.InDelta(t, 100.0, Progress{}.Percent(), 0.001)
	assert.InDelta(t, 50.0, Progress{Scanned: 2, Total: 4}.Percent(), 0.001)
	assert.InDelta(t, 100.0, Progress{Scanned: 9, Total: 4}.Percent(), 0.001)
}
