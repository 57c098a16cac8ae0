package log

// Logger writes leveled, structured entries. keysAndValues are alternating
// key/value pairs ("method", "eth_call", "attempt", 1).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs and terminates the process for implementations that support it.
	Fatal(msg string, keysAndValues ...any)

	// With returns a logger that attaches keysAndValues to every entry.
	With(keysAndValues ...any) Logger
	// Fields returns the pairs attached through With.
	Fields() []any
	// Named returns a logger whose name is extended with name, dot separated.
	Named(name string) Logger
	Name() string
	// CallerSkip returns a logger reporting the caller skip frames further up.
	CallerSkip(skip int) Logger
}

// Level is the minimum severity an entry needs to be written.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// SpanEventRecorder receives log entries as tracing events.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string
	RecordEvent(name string, keysAndValues ...any)
	RecordError(name string, keysAndValues ...any)
}
