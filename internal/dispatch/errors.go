package dispatch

import "errors"

// ErrQueueFull names a soft-cap admission rejection for callers and
// diagnostics that want a concrete error to log. The executor itself
// reports that rejection only through an already-canceled TaskHandle; it
// does not return or pass this error anywhere.
var ErrQueueFull = errors.New("dispatch: queue is full")

// ErrShutdown names a submission that arrives after Shutdown or
// ShutdownNow. The executor reports that case through an already-canceled
// TaskHandle and by calling RejectedHandler with the task; the error itself
// is not passed to RejectedHandler.
var ErrShutdown = errors.New("dispatch: executor is shut down")
