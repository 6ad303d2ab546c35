package play

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	var expires int32
	ticks := make(chan int, 16)

	c := startCountdown(3, 5*time.Millisecond,
		func(remaining int) { ticks <- remaining },
		func() { atomic.AddInt32(&expires, 1) },
	)
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case remaining := <-ticks:
			if remaining == 0 {
				// drained to zero; give it time to (wrongly) fire again
				time.Sleep(50 * time.Millisecond)
				if got := atomic.LoadInt32(&expires); got != 1 {
					t.Fatalf("expected exactly one expiry, got %d", got)
				}
				return
			}
		case <-deadline:
			t.Fatalf("countdown never reached zero")
		}
	}
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	var expires int32
	c := startCountdown(2, 20*time.Millisecond,
		func(int) {},
		func() { atomic.AddInt32(&expires, 1) },
	)
	c.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&expires); got != 0 {
		t.Fatalf("expected no expiry after stop, got %d", got)
	}
	if c.Remaining() != 2 {
		t.Fatalf("expected remaining unchanged, got %d", c.Remaining())
	}
}

func TestStopwatchCountsAndStops(t *testing.T) {
	ticks := make(chan int, 16)
	s := startStopwatch(5*time.Millisecond, func(elapsed int) {
		select {
		case ticks <- elapsed:
		default:
		}
	})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case elapsed := <-ticks:
			if elapsed >= 3 {
				s.Stop()
				if s.Elapsed() < 3 {
					t.Fatalf("elapsed = %d, want >= 3", s.Elapsed())
				}
				frozen := s.Elapsed()
				time.Sleep(50 * time.Millisecond)
				if s.Elapsed() != frozen {
					t.Fatalf("stopwatch kept ticking after stop")
				}
				return
			}
		case <-deadline:
			t.Fatalf("stopwatch never ticked to 3")
		}
	}
}
