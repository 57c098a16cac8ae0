// Package log is the structured logger used across the mock wallet.
//
// Components receive a Logger explicitly (constructor argument or context)
// instead of reaching for a package-level instance:
//
//	lg := log.NewZapLogger(log.Config{Format: "logfmt", Level: log.LevelDebug})
//	lg = lg.Named("bridge").With("session", id)
//	lg.Info("request forwarded", "method", method)
//
// Three implementations are shipped:
//
//   - ZapLogger writes through go.uber.org/zap (console, logfmt or json).
//   - NoopLogger drops everything; tests and library defaults use it.
//   - SpanLogger mirrors every entry onto the OpenTelemetry span carried by
//     the context it was attached to.
//
// SetContextLogger and FromContext move a logger through a request. When the
// context holds a valid span the stored logger is wrapped in a SpanLogger, so
// entries written while serving a page request show up as span events.
package log
