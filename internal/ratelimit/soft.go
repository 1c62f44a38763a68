package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bnema/gordon/pkg/logger"
)

// SoftMonitor watches request arrivals with a token-bucket limiter purely
// to decide when sustained overload is worth a log line. It never rejects
// requests itself; Limiter.Allow is the only thing that does that.
type SoftMonitor struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	lastLog time.Time
}

// NewSoftMonitor builds a monitor matching the configured budget.
func NewSoftMonitor(budgetPerSecond int) *SoftMonitor {
	return &SoftMonitor{
		limiter: rate.NewLimiter(rate.Limit(budgetPerSecond), budgetPerSecond),
	}
}

// Observe records one admitted request and logs a warning, at most once
// every five seconds, once sustained throughput exceeds the configured
// budget.
func (m *SoftMonitor) Observe() {
	if m.limiter.Allow() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastLog) < 5*time.Second {
		return
	}
	m.lastLog = now
	logger.Warn("sustained request rate above configured budget")
}
