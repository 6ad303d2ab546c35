package play

import (
	"sync"
	"time"
)

// countdown ticks a per-question budget down to zero. Expiry is an event:
// onExpire fires exactly once, after which the tick goroutine exits, so a
// countdown that reached zero can never fire again. Stop is idempotent and
// safe to call from a tick callback.
type countdown struct {
	stop chan struct{}
	once sync.Once

	mu        sync.Mutex
	remaining int
}

func startCountdown(budget int, interval time.Duration, onTick func(remaining int), onExpire func()) *countdown {
	c := &countdown{
		stop:      make(chan struct{}),
		remaining: budget,
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				c.remaining--
				remaining := c.remaining
				c.mu.Unlock()
				if remaining > 0 {
					onTick(remaining)
					continue
				}
				onTick(0)
				onExpire()
				return
			}
		}
	}()
	return c
}

func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// stopwatch counts whole elapsed seconds for the session. Started once at
// the first question and stopped on every exit path.
type stopwatch struct {
	stop chan struct{}
	once sync.Once

	mu      sync.Mutex
	elapsed int
}

func startStopwatch(interval time.Duration, onTick func(elapsed int)) *stopwatch {
	s := &stopwatch{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				s.elapsed++
				elapsed := s.elapsed
				s.mu.Unlock()
				onTick(elapsed)
			}
		}
	}()
	return s
}

func (s *stopwatch) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *stopwatch) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}
