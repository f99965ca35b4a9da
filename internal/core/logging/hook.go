package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies scan identifiers from the event context onto the event.
// Events only carry a context when built with .Ctx(ctx).
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	for _, key := range contextFields {
		if v := value(ctx, key); v != "" {
			e.Str(string(key), v)
		}
	}
}
