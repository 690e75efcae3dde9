package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimbusobs/nimbus-go/internal/obs"
)

// RetryExecutor is the scheduled worker pool described by the dispatch
// core: it admits tasks through an AdmissionGate, wraps each as a
// taskEnvelope, runs it on a fixed pool of worker goroutines, and
// reschedules on failure until the task's retry chain is exhausted. A
// FlushBarrier lets callers wait for currently in-flight work to settle.
type RetryExecutor struct {
	cfg Config

	queued  atomic.Int64
	running atomic.Int64

	seq atomic.Int64

	runningMu  sync.Mutex
	runningSet map[int64]struct{}

	gate  *admissionGate
	flush *flushBarrier

	ready chan *taskEnvelope

	workerCtx       context.Context
	cancelWorkerCtx context.CancelFunc

	shuttingDown atomic.Bool
	stopped      atomic.Bool
	stopOnce     sync.Once

	wg sync.WaitGroup
}

// NewRetryExecutor constructs and starts a RetryExecutor with CorePoolSize
// worker goroutines.
func NewRetryExecutor(cfg Config) *RetryExecutor {
	workerCtx, cancel := context.WithCancel(context.Background())

	e := &RetryExecutor{
		cfg:             cfg,
		runningSet:      make(map[int64]struct{}),
		ready:           make(chan *taskEnvelope),
		workerCtx:       workerCtx,
		cancelWorkerCtx: cancel,
	}
	e.gate = newAdmissionGate(&e.queued, &e.running, cfg.MaxQueueSize)
	e.flush = newFlushBarrier(e.snapshotRunning)

	spawn := cfg.goroutineFactory()
	for i := 0; i < cfg.corePoolSize(); i++ {
		e.wg.Add(1)
		spawn(e.workerLoop)
	}
	return e
}

// Submit admits or rejects task. On admission it is wrapped in a fresh
// envelope and scheduled for immediate execution.
func (e *RetryExecutor) Submit(task Task) TaskHandle {
	if e.shuttingDown.Load() {
		if e.cfg.RejectedHandler != nil {
			e.cfg.RejectedHandler(task)
		}
		return newResolvedHandle()
	}

	if !e.gate.tryAdmit() {
		obs.AdmissionRejections.WithLabelValues("soft_cap").Inc()
		// Soft-cap rejection: not queued, not retried, not logged as a
		// failure by the core, and RejectedHandler is not invoked.
		return newResolvedHandle()
	}

	env := newEnvelope(task, e.nextID())
	e.queued.Add(1)
	obs.QueueDepth.Set(float64(e.queued.Load()))
	e.schedule(env, 0)
	return env.handle
}

// schedule places env on the delay queue, ready to run after delay. It is
// always dispatched through time.AfterFunc — even for a zero delay — so
// that a worker rescheduling its own next attempt never blocks sending to
// the channel it itself reads from.
func (e *RetryExecutor) schedule(env *taskEnvelope, delay time.Duration) {
	push := func() {
		if e.stopped.Load() || e.workerCtx.Err() != nil {
			env.handle.Cancel()
			env.handle.markDone()
			e.queued.Add(-1)
			obs.QueueDepth.Set(float64(e.queued.Load()))
			e.flush.recordCompletion(env.id)
			e.maybeFinish()
			return
		}
		e.ready <- env
	}
	if delay <= 0 {
		time.AfterFunc(0, push)
		return
	}
	time.AfterFunc(delay, push)
}

func (e *RetryExecutor) workerLoop() {
	defer e.wg.Done()
	for env := range e.ready {
		e.execute(env)
	}
}

func (e *RetryExecutor) execute(env *taskEnvelope) {
	e.queued.Add(-1)
	e.running.Add(1)
	e.addRunning(env.id)
	obs.QueueDepth.Set(float64(e.queued.Load()))
	obs.RunningCount.Set(float64(e.running.Load()))
	defer func() {
		e.removeRunning(env.id)
		e.running.Add(-1)
		obs.RunningCount.Set(float64(e.running.Load()))
		e.flush.recordCompletion(env.id)
		e.maybeFinish()
	}()

	// Worker was asked to stop before this envelope even started: treat it
	// as interrupted without invoking the task body at all.
	if e.workerCtx.Err() != nil {
		return
	}

	preRunAttempt := env.attempt
	env.attempt++
	err := env.task.Run(e.workerCtx)

	if e.workerCtx.Err() != nil {
		// Interrupted: the sole path that neither retries nor reports the
		// failure via the core.
		return
	}

	if env.handle.IsCanceled() {
		// Canceled from outside: terminal failure, no retry.
		env.handle.markDone()
		return
	}

	env.handle.markDone()

	if err == nil {
		return
	}

	if preRunAttempt < e.cfg.MaxRetries {
		delay := e.nextDelay(env.task, preRunAttempt)
		next := rescheduleEnvelope(env.task, preRunAttempt+1, e.nextID())
		e.queued.Add(1)
		obs.QueueDepth.Set(float64(e.queued.Load()))
		obs.RetryAttempts.Inc()
		e.schedule(next, delay)
		return
	}

	if e.cfg.OnRetriesExhausted != nil {
		e.cfg.OnRetriesExhausted(env.task, err)
	}
}

func (e *RetryExecutor) nextDelay(task Task, preRunAttempt int) time.Duration {
	if rs, ok := task.(RetrySuggester); ok {
		if d := rs.SuggestedRetryDelayMillis(); d >= 0 {
			return time.Duration(d) * time.Millisecond
		}
	}
	return e.cfg.backoff().Delay(uint32(preRunAttempt))
}

// Flush waits for every envelope that was running at the moment the drain
// started to complete, up to timeout (timeout <= 0 means no time bound).
// After shutdown, Flush is a no-op that resolves immediately.
func (e *RetryExecutor) Flush(timeout time.Duration) FlushHandle {
	if e.shuttingDown.Load() {
		return alreadyResolved()
	}
	return e.flush.flush(timeout)
}

// Shutdown stops admitting new submissions. Work already queued, running,
// or mid-retry continues to completion; once nothing remains outstanding
// the worker pool is stopped.
func (e *RetryExecutor) Shutdown() {
	e.shuttingDown.Store(true)
	e.maybeFinish()
}

// ShutdownNow stops admitting new submissions, cancels every envelope that
// has not yet started running, and signals the shared interrupt context so
// in-flight task bodies can cooperatively unwind.
func (e *RetryExecutor) ShutdownNow() {
	e.shuttingDown.Store(true)
	e.cancelWorkerCtx()
	e.maybeFinish()
}

// maybeFinish stops the worker pool once shutdown has been requested and no
// work remains queued or running — at that point no further envelope can
// ever reach the ready channel, so closing it is safe.
func (e *RetryExecutor) maybeFinish() {
	if !e.shuttingDown.Load() {
		return
	}
	if e.queued.Load() != 0 || e.running.Load() != 0 {
		return
	}
	e.stopOnce.Do(func() {
		e.stopped.Store(true)
		close(e.ready)
	})
}

// nextID hands out a process-wide unique envelope identity.
func (e *RetryExecutor) nextID() int64 { return e.seq.Add(1) }

func (e *RetryExecutor) addRunning(id int64) {
	e.runningMu.Lock()
	e.runningSet[id] = struct{}{}
	e.runningMu.Unlock()
}

func (e *RetryExecutor) removeRunning(id int64) {
	e.runningMu.Lock()
	delete(e.runningSet, id)
	e.runningMu.Unlock()
}

// snapshotRunning returns a point-in-time copy of the running envelope id
// set, owned exclusively by whichever flush drain captures it.
func (e *RetryExecutor) snapshotRunning() map[int64]struct{} {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	snap := make(map[int64]struct{}, len(e.runningSet))
	for id := range e.runningSet {
		snap[id] = struct{}{}
	}
	return snap
}

// QueueDepth and RunningCount expose the two process-wide counters for
// diagnostics and metrics wiring.
func (e *RetryExecutor) QueueDepth() int64   { return e.queued.Load() }
func (e *RetryExecutor) RunningCount() int64 { return e.running.Load() }
