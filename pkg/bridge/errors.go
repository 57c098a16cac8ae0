package bridge

import "errors"

var (
	// ErrConventionMismatch marks arguments matching neither calling
	// convention. They are handled as positional, so the error reaches the
	// caller as a positional failure.
	ErrConventionMismatch = errors.New("arguments match no provider calling convention")
	// ErrInvalidParams marks parameters a locally answered method cannot use.
	ErrInvalidParams = errors.New("invalid params")
	// ErrNoDelegate is returned when a request has to be forwarded but the
	// adapter was built without a backing client.
	ErrNoDelegate = errors.New("no backing rpc client configured")
)
