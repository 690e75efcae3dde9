package dispatch

import "sync"

// countdown is a one-shot completion barrier keyed by envelope identity: it
// is sized to a fixed set of envelope ids at creation and closes done once
// every id in that set has been signaled. Signals for ids outside the set —
// a retried envelope's own later completion, or a brand-new submission that
// races the drain — are ignored, so only the snapshot that was actually
// owned by this drain can resolve it.
type countdown struct {
	mu        sync.Mutex
	remaining map[int64]struct{}
	done      chan struct{}
}

func newCountdown(ids map[int64]struct{}) *countdown {
	c := &countdown{remaining: ids, done: make(chan struct{})}
	if len(ids) == 0 {
		close(c.done)
	}
	return c
}

func (c *countdown) signal(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.remaining[id]; !ok {
		return
	}
	delete(c.remaining, id)
	if len(c.remaining) == 0 {
		close(c.done)
	}
}
