package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimbusobs/nimbus-go/internal/obs"
)

// FlushHandle is returned by RetryExecutor.Flush. It is cancelable and
// reports its own completion; callers that want to block until the drain
// resolves (by completion, timeout, or cancellation) read from Done().
type FlushHandle interface {
	Cancel()
	IsCanceled() bool
	IsDone() bool
	Done() <-chan struct{}
}

type flushHandle struct {
	barrier *flushBarrier

	doneCh   chan struct{}
	doneFlag atomic.Bool

	canceledFlag atomic.Bool
	cancelSignal chan struct{}
	cancelOnce   sync.Once

	// cleanupHandled guards the single-flight teardown so that exactly one
	// of {Cancel, the drainer body} releases the slot and resolves the
	// handle, per the flush barrier's cancellation regimes.
	cleanupHandled atomic.Bool

	countdown atomic.Pointer[countdown]
}

func newFlushHandle(b *flushBarrier) *flushHandle {
	return &flushHandle{
		barrier:      b,
		doneCh:       make(chan struct{}),
		cancelSignal: make(chan struct{}),
	}
}

func (h *flushHandle) resolve() {
	if h.doneFlag.CompareAndSwap(false, true) {
		close(h.doneCh)
	}
}

func (h *flushHandle) Cancel() {
	if !h.canceledFlag.CompareAndSwap(false, true) {
		return
	}
	h.cancelOnce.Do(func() { close(h.cancelSignal) })

	// "Handle won the race": the drainer body has not yet begun, or is still
	// waiting in its select, so we perform the teardown ourselves. If the
	// drainer body already claimed cleanup (it finished first), this CAS
	// simply loses and we do nothing further — its own post-select teardown
	// covers us.
	if h.cleanupHandled.CompareAndSwap(false, true) {
		h.barrier.release(h)
		h.resolve()
	}
}

func (h *flushHandle) IsCanceled() bool { return h.canceledFlag.Load() }
func (h *flushHandle) IsDone() bool     { return h.doneFlag.Load() }
func (h *flushHandle) Done() <-chan struct{} { return h.doneCh }

// flushBarrier is the single-flight drain primitive. snapshotRunning reports
// the set of envelope ids currently running; recordCompletion is called by
// the executor's after-run cleanup step for every envelope, whether or not a
// flush is in progress, and only advances a drain whose snapshot actually
// contains the completing id.
type flushBarrier struct {
	slot            atomic.Pointer[flushHandle]
	snapshotRunning func() map[int64]struct{}
}

func newFlushBarrier(snapshotRunning func() map[int64]struct{}) *flushBarrier {
	return &flushBarrier{snapshotRunning: snapshotRunning}
}

// flush implements the single-flight join: concurrent callers converge on
// the same handle via a bounded compare-and-swap retry loop.
func (b *flushBarrier) flush(timeout time.Duration) FlushHandle {
	for {
		if existing := b.slot.Load(); existing != nil {
			return existing
		}
		h := newFlushHandle(b)
		if b.slot.CompareAndSwap(nil, h) {
			go b.drain(h, timeout)
			return h
		}
		// Lost the race to become the drainer; the winner's handle should
		// now be visible, loop around and read it.
	}
}

func (b *flushBarrier) release(h *flushHandle) {
	b.slot.CompareAndSwap(h, nil)
}

func (b *flushBarrier) drain(h *flushHandle, timeout time.Duration) {
	start := time.Now()
	defer func() { obs.FlushDuration.Observe(time.Since(start).Seconds()) }()

	// Cancel-before-start: the cancellation path already performed the
	// teardown. Bail out without touching the slot or any countdown.
	if h.cleanupHandled.Load() {
		return
	}

	// Snapshot semantics: the countdown is keyed to the exact set of envelope
	// ids running AFTER this goroutine has actually started, not at
	// handle-creation time, eliminating the race where tasks finish between
	// those two points. Keying by id (rather than a bare count) also means a
	// retried envelope's own later completion, or any envelope submitted
	// during the drain window, can never masquerade as one of the snapshot's
	// completions.
	ids := b.snapshotRunning()
	cd := newCountdown(ids)
	h.countdown.Store(cd)
	defer h.countdown.Store(nil)

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	select {
	case <-cd.done:
	case <-timeoutCh:
	case <-h.cancelSignal:
	}

	if h.cleanupHandled.CompareAndSwap(false, true) {
		b.release(h)
		h.resolve()
	}
}

// recordCompletion notifies whichever flush is currently draining, if any,
// that envelope id has completed. The countdown reference is read into a
// local before use so a concurrent drain-teardown nulling it out can never
// be observed mid-operation. An id outside the drain's own snapshot set is
// silently ignored by countdown.signal, so this is safe to call for every
// envelope completion system-wide.
func (b *flushBarrier) recordCompletion(id int64) {
	if existing := b.slot.Load(); existing != nil {
		if cd := existing.countdown.Load(); cd != nil {
			cd.signal(id)
		}
	}
}

// alreadyResolved returns a handle that is immediately done and canceled,
// used once the executor has been shut down: flush is then a no-op.
func alreadyResolved() FlushHandle {
	h := &flushHandle{doneCh: make(chan struct{}), cancelSignal: make(chan struct{})}
	h.canceledFlag.Store(true)
	h.doneFlag.Store(true)
	h.cleanupHandled.Store(true)
	close(h.doneCh)
	return h
}
