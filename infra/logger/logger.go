package logger

import corelogger "github.com/careline/dispatch/core/logger"

// Logger mirrors the core logger interface for convenience.
type Logger = corelogger.Logger

// New returns a Logger tagged with the given component. The output format is
// detected via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
