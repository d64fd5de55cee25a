// Package logger provides a thin wrapper around zerolog.Logger shared by the
// server process and the background booking consumer.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API is available directly
// on *Logger while leaving room for application helpers.
type Logger struct {
	zerolog.Logger
}

// New constructs a JSON logger writing to stdout.  The role label (e.g.
// "server", "booking-consumer") tags every entry so logs from the API and
// the queue consumer can be told apart.  In non-production environments the
// level drops to Debug.
func New(role, env string) *Logger {
	level := zerolog.InfoLevel
	if env != "production" {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(os.Stdout).
		Level(level).
		With().
		Str("role", role).
		Timestamp().
		Logger()
	return &Logger{l}
}
