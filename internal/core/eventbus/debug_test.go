package eventbus_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/colonyops/goodvibes/internal/core/eventbus"
	"github.com/colonyops/goodvibes/internal/core/eventbus/testbus"
)

func TestRegisterDebugLogger(t *testing.T) {
	tb := testbus.New(t)

	var buf bytes.Buffer
	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.New(&buf).Level(zerolog.DebugLevel))

	tb.PublishQueueChanged(eventbus.QueueChangedPayload{Size: 3})
	tb.PublishError(eventbus.ErrorPayload{Err: errors.New("boom"), SessionID: "s1"})

	tb.AssertPublished(t, eventbus.EventQueueChanged)
	tb.AssertPublished(t, eventbus.EventError)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], `"event":"queueChanged"`)
		assert.Contains(t, lines[0], `"size":3`)
		assert.Contains(t, lines[1], `"session_id":"s1"`)
		assert.Contains(t, lines[1], `"scan_error":"boom"`)
	}
}

func TestRegisterDebugLogger_Panic(t *testing.T) {
	bus := eventbus.New()

	var buf bytes.Buffer
	eventbus.RegisterDebugLogger(bus, zerolog.New(&buf).Level(zerolog.ErrorLevel))

	bus.SubscribeQueueChanged(func(eventbus.QueueChangedPayload) { panic("kaboom") })
	bus.PublishQueueChanged(eventbus.QueueChangedPayload{Size: 1})

	assert.Contains(t, buf.String(), "subscriber panicked")
	assert.Contains(t, buf.String(), "kaboom")
}
