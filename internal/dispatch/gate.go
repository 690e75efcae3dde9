package dispatch

import "sync/atomic"

// admissionGate enforces the bounded-queue policy over queued+running. The
// check is advisory, not a reservation: it does not itself increment
// anything. A transient overshoot of one slot per concurrently-admitting
// goroutine is bounded by the number of submitters and is not a correctness
// hazard, only a soft cap, matching the teacher's own admission checks in
// Scheduler.Submit (queue-depth read, then a later unguarded push).
type admissionGate struct {
	queued  *atomic.Int64
	running *atomic.Int64
	max     int
}

func newAdmissionGate(queued, running *atomic.Int64, max int) *admissionGate {
	return &admissionGate{queued: queued, running: running, max: max}
}

func (g *admissionGate) tryAdmit() bool {
	return g.queued.Load()+g.running.Load() < int64(g.max)
}
