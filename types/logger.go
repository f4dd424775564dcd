package types

// Logger defines the structured logging interface used throughout unidb.
//
// The method set is compatible with zap.SugaredLogger, allowing a sugared
// zap logger to be passed directly. A no-op implementation is used when no
// logger is configured.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
type Logger interface {
	// Debug logs a debug message with key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an informational message with key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning message with key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error message with key-value pairs.
	Error(msg string, keysAndValues ...any)
}
