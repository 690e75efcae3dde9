package dispatch

import (
	"testing"
	"time"
)

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	b := ExponentialBackoff{Base: 10 * time.Millisecond, Ceiling: 100 * time.Millisecond}

	cases := []struct {
		attempt uint32
		want    time.Duration
	}{
		{0, 10 * time.Millisecond},
		{1, 20 * time.Millisecond},
		{2, 40 * time.Millisecond},
		{3, 80 * time.Millisecond},
		{4, 100 * time.Millisecond}, // would be 160ms uncapped
		{20, 100 * time.Millisecond},
	}

	for _, c := range cases {
		if got := b.Delay(c.attempt); got != c.want {
			t.Errorf("Delay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestExponentialBackoffNonDecreasing(t *testing.T) {
	b := DefaultBackoff()
	var prev time.Duration
	for n := uint32(0); n < 10; n++ {
		d := b.Delay(n)
		if d < prev {
			t.Fatalf("Delay(%d)=%v is less than Delay(%d)=%v", n, d, n-1, prev)
		}
		prev = d
	}
}

func TestExponentialBackoffDefaults(t *testing.T) {
	var b ExponentialBackoff
	if got := b.Delay(0); got != time.Second {
		t.Errorf("zero-value Delay(0) = %v, want 1s default base", got)
	}
}
