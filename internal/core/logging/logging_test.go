package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetSessionID(ctx))
	assert.Empty(t, GetBatchID(ctx))

	ctx = WithBatchID(WithSessionID(ctx, "sess-1"), "batch-1")
	assert.Equal(t, "sess-1", GetSessionID(ctx))
	assert.Equal(t, "batch-1", GetBatchID(ctx))
}

func TestContextHook(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want map[string]string
	}{
		{
			name: "session and batch",
			ctx:  WithBatchID(WithSessionID(context.Background(), "sess-1"), "batch-1"),
			want: map[string]string{"session_id": "sess-1", "batch_id": "batch-1"},
		},
		{
			name: "batch only",
			ctx:  WithBatchID(context.Background(), "batch-1"),
			want: map[string]string{"batch_id": "batch-1"},
		},
		{
			name: "bare context",
			ctx:  context.Background(),
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(tt.ctx).Msg("scan")

			entry := decode(t, &buf)
			for _, key := range []string{"session_id", "batch_id"} {
				want, ok := tt.want[key]
				if !ok {
					assert.NotContains(t, entry, key)
					continue
				}
				assert.Equal(t, want, entry[key])
			}
		})
	}
}

func TestContextHook_NoContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(ContextHook{})
	logger.Info().Msg("plain")

	entry := decode(t, &buf)
	assert.NotContains(t, entry, "session_id")
}

func TestComponent(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	Component("tagscan").Info().Msg("scan started")

	entry := decode(t, &buf)
	assert.Equal(t, "tagscan", entry["cmp"])
	assert.Equal(t, "scan started", entry["message"])
}
