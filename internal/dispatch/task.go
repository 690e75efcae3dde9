package dispatch

import "context"

// Task is an opaque unit of work. Run may fail by returning a non-nil
// error, or may observe ctx being canceled and return cooperatively; it
// must not attempt to communicate a result value back through the core —
// return values beyond success/failure are not observable through a
// TaskHandle.
type Task interface {
	Run(ctx context.Context) error
}

// RetrySuggester is an optional interface a Task may implement to override
// the BackoffStrategy for its own next retry. A negative value means "no
// suggestion, defer to the configured BackoffStrategy". Zero is a concrete,
// valid suggestion (retry immediately) and is never treated as "absent".
type RetrySuggester interface {
	SuggestedRetryDelayMillis() int64
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }
