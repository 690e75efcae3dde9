package transport

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/nimbusobs/nimbus-go/internal/obs"
)

// SampleLimiter is a client-side event sampler, built the same way the
// scheduler's TokenBucketLimiter wraps golang.org/x/time/rate: Allow for a
// hard drop decision and SetRate for runtime adjustment. It offers no
// non-blocking "would this be delayed" query.
type SampleLimiter struct {
	mu sync.Mutex
	r  rate.Limit
	b  int
	l  *rate.Limiter
}

// NewSampleLimiter returns a limiter admitting up to r events per second
// with burst b.
func NewSampleLimiter(r float64, b int) *SampleLimiter {
	return &SampleLimiter{
		r: rate.Limit(r),
		b: b,
		l: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether the next event should be sent, incrementing the
// dropped-event metric on refusal.
func (s *SampleLimiter) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.l.Allow() {
		return true
	}
	obs.SampledDrops.Inc()
	return false
}

// SetRate adjusts the sampling rate and burst at runtime, rebuilding the
// underlying limiter since golang.org/x/time/rate has no atomic combined
// setter for both.
func (s *SampleLimiter) SetRate(r float64, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r, s.b = rate.Limit(r), b
	s.l = rate.NewLimiter(s.r, s.b)
}
