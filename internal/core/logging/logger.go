// Package logging holds the zerolog helpers shared by goodvibes components.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns a child of the global logger tagged with "cmp". The global
// logger is read at call time, so call it after logging is configured.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
