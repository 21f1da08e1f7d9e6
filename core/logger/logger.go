package logger

// Logger is the logging surface used by the replay engine and its adapters.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields, typically an outgoing payload.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// LevelChecker is implemented by loggers able to report whether debug output
// is enabled, so callers can skip building expensive debug fields.
type LevelChecker interface {
	DebugEnabled() bool
}
