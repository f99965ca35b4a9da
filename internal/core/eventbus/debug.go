package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs every published event at debug level with a short
// summary of its payload. Subscriber panics are logged at error level.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		switch p := payload.(type) {
		case ProgressPayload:
			e = e.Int("scanned", p.Progress.Scanned).Int("total", p.Progress.Total).Int("queued", p.Progress.QueueSize)
		case CompletePayload:
			e = e.Str("session_id", p.SessionID).Int("suggestions", len(p.Suggestions))
		case ErrorPayload:
			e = e.Str("session_id", p.SessionID).AnErr("scan_error", p.Err)
		case QueueChangedPayload:
			e = e.Int("size", p.Size)
		case StatusChangedPayload:
			e = e.Bool("running", p.Status.Running).Bool("paused", p.Status.Paused)
		}
		e.Msg("event fired")
	})

	bus.OnSubscribe(func(event Event) {
		logger.Trace().Str("event", string(event)).Msg("subscriber added")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
