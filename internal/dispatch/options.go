package dispatch

// Config holds construction-time options for a RetryExecutor, mirroring the
// core's documented configuration surface.
type Config struct {
	// CorePoolSize is the number of worker goroutines servicing the delay
	// queue. Defaults to 1 if unset or non-positive.
	CorePoolSize int

	// MaxRetries bounds retries per task; total attempts = MaxRetries + 1.
	MaxRetries int

	// MaxQueueSize bounds queued+running at every admission decision.
	MaxQueueSize int

	// Backoff is consulted whenever a failed task offers no retry
	// suggestion of its own. Defaults to DefaultBackoff().
	Backoff BackoffStrategy

	// GoroutineFactory launches a worker's run loop. It stands in for the
	// core's injectable thread factory; the default just does `go fn()`.
	// Overriding it lets a host application add panic recovery policy,
	// goroutine labels, or test instrumentation around every worker.
	GoroutineFactory func(fn func())

	// RejectedHandler is invoked with the task when a submission is
	// rejected because the executor has been shut down. It is not called
	// for ordinary soft-cap admission rejections.
	RejectedHandler func(Task)

	// OnRetriesExhausted, if set, is invoked when a task's retry chain hits
	// MaxRetries without succeeding. Purely observational.
	OnRetriesExhausted func(Task, error)
}

func (c Config) corePoolSize() int {
	if c.CorePoolSize > 0 {
		return c.CorePoolSize
	}
	return 1
}

func (c Config) backoff() BackoffStrategy {
	if c.Backoff != nil {
		return c.Backoff
	}
	d := DefaultBackoff()
	return d
}

func (c Config) goroutineFactory() func(fn func()) {
	if c.GoroutineFactory != nil {
		return c.GoroutineFactory
	}
	return func(fn func()) { go fn() }
}
