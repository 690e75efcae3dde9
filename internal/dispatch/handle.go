package dispatch

import "sync/atomic"

// TaskHandle is returned by Submit. Its only contract is cancelable and
// done?; it carries no result value. Because a retried task runs under a
// brand new envelope and handle, a handle returned by Submit stops being
// useful for observing anything past the first attempt — callers that need
// a completion signal across retries must use FlushBarrier instead.
type TaskHandle interface {
	// Cancel marks the handle canceled. It does not revoke a run already in
	// progress; the executor observes the cancellation at its next
	// after-run check and treats it as a terminal failure.
	Cancel()
	IsCanceled() bool
	IsDone() bool
}

type taskHandle struct {
	canceled atomic.Bool
	done     atomic.Bool
}

func newTaskHandle() *taskHandle {
	return &taskHandle{}
}

// newResolvedHandle returns a handle that is already canceled and done, used
// for admission-rejected and shutdown-rejected submissions.
func newResolvedHandle() *taskHandle {
	h := &taskHandle{}
	h.canceled.Store(true)
	h.done.Store(true)
	return h
}

func (h *taskHandle) Cancel()          { h.canceled.Store(true) }
func (h *taskHandle) IsCanceled() bool { return h.canceled.Load() }
func (h *taskHandle) IsDone() bool     { return h.done.Load() }

func (h *taskHandle) markDone() { h.done.Store(true) }
