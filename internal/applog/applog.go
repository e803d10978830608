// Package applog wraps zerolog for structured logging, grounded on
// rakaoran-GuessTheObject's shared/logger/logger.go convention (package-level
// Info/Error/Warn wrappers a handler calls without carrying a logger value
// around), made functional here rather than left stubbed: this module's
// ambient stack is carried regardless of which features spec.md's
// Non-goals exclude.
package applog

import (
	"os"

	"github.com/rs/zerolog"
)

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// Configure switches to JSON output for production (GIN_MODE=release),
// matching the gin.ReleaseMode/gin.DebugMode split in appconfig.
func Configure(jsonOutput bool) {
	if jsonOutput {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func Info(msg string, fields map[string]any) {
	event := base.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func Warn(msg string, fields map[string]any) {
	event := base.Warn()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func Error(msg string, err error, fields map[string]any) {
	event := base.Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func Fatal(msg string, err error) {
	base.Fatal().Err(err).Msg(msg)
}
