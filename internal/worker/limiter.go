package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// CommandLimiter implements per-command rate limiting for verifiers that
// spawn subprocesses (e.g. git lookups). Uncapped spawning during a large
// batch can starve the host, so each command name gets its own limiter.
type CommandLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewCommandLimiter creates a new subprocess rate limiter
func NewCommandLimiter(opsPerSecond float64, burst int) *CommandLimiter {
	if burst <= 0 {
		burst = 5
	}

	return &CommandLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(opsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the named command may be spawned or the context ends
func (l *CommandLimiter) Wait(ctx context.Context, command string) error {
	return l.getLimiter(command).Wait(ctx)
}

// getLimiter returns the rate limiter for a command
func (l *CommandLimiter) getLimiter(command string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[command]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[command]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[command] = limiter

	return limiter
}
