package service

import (
	"sync"
	"time"
)

// LoginLimiter is an in-memory per-key token bucket used to throttle
// credential-guessing against the auth endpoints. Keys are client
// addresses. Safe for concurrent use; stale buckets are cleaned up by a
// background goroutine.
type LoginLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLoginLimiter creates a limiter allowing bursts of up to capacity
// attempts per key, refilling at rate attempts per second.
func NewLoginLimiter(rate, capacity float64) *LoginLimiter {
	l := &LoginLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
	}
	go l.cleanup()
	return l
}

// Allow reports whether the key may make another attempt, consuming one
// token if so.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: time.Now()}
		l.buckets[key] = b
	}

	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*l.rate, l.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// cleanup removes buckets idle for more than 10 minutes.
func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for key, b := range l.buckets {
			if b.last.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
