package log

var _ Logger = NoopLogger{}

// NoopLogger discards every entry.
type NoopLogger struct{}

func NewNoopLogger() Logger { return NoopLogger{} }

func (NoopLogger) Debug(string, ...any)    {}
func (NoopLogger) Info(string, ...any)     {}
func (NoopLogger) Warn(string, ...any)     {}
func (NoopLogger) Error(string, ...any)    {}
func (NoopLogger) Fatal(string, ...any)    {}
func (n NoopLogger) With(...any) Logger    { return n }
func (NoopLogger) Fields() []any           { return nil }
func (n NoopLogger) Named(string) Logger   { return n }
func (NoopLogger) Name() string            { return "noop" }
func (n NoopLogger) CallerSkip(int) Logger { return n }
