// Package ratelimit implements a single process-wide token-style counter:
// increment on every admitted request, drain the per-second budget on a
// ticker, floor at zero.
package ratelimit

import (
	"sync/atomic"
	"time"

	"github.com/bnema/gordon/pkg/logger"
)

// Limiter is the global rate counter. It is intentionally coarse: no
// per-route or per-client fairness, just an average-QPS cap with bursts
// up to roughly the budget.
type Limiter struct {
	budget  int64
	counter int64
	stop    chan struct{}
}

// New creates a Limiter with the given per-second budget and starts its
// drain ticker. Call Stop to release the ticker goroutine.
func New(budgetPerSecond int) *Limiter {
	l := &Limiter{
		budget: int64(budgetPerSecond),
		stop:   make(chan struct{}),
	}
	go l.drainLoop()
	return l
}

func (l *Limiter) drainLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.drain()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) drain() {
	for {
		cur := atomic.LoadInt64(&l.counter)
		if cur == 0 {
			return
		}
		next := cur - l.budget
		if next < 0 {
			next = 0
		}
		if atomic.CompareAndSwapInt64(&l.counter, cur, next) {
			return
		}
	}
}

// Allow increments the counter and reports whether the post-increment
// value is within budget. Exceeding it does not undo the increment;
// the counter simply reflects sustained overload until the next drain.
func (l *Limiter) Allow() bool {
	v := atomic.AddInt64(&l.counter, 1)
	if v > l.budget {
		logger.Debug("rate limit exceeded", "counter", v, "budget", l.budget)
		return false
	}
	return true
}

// Count returns the current counter value, for tests and diagnostics.
func (l *Limiter) Count() int64 {
	return atomic.LoadInt64(&l.counter)
}

// Stop releases the drain goroutine.
func (l *Limiter) Stop() {
	close(l.stop)
}
