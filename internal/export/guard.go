package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/pbsimport/internal/pbs"
)

// ErrSinkSuspended is returned by [Guard.Import] while the wrapped sink is
// suspended after repeated failures.
var ErrSinkSuspended = errors.New("export: sink suspended after repeated failures")

// Guard wraps a [Sink] with a circuit breaker. After MaxFailures consecutive
// failed imports the sink is suspended for Cooldown; the first import after
// the cooldown is let through as a probe. A successful probe resumes the
// sink, a failed one suspends it again.
//
// Guard is safe for concurrent use.
type Guard struct {
	sink        Sink
	maxFailures int
	cooldown    time.Duration

	mu        sync.Mutex
	failures  int
	suspendAt time.Time
}

var _ Sink = (*Guard)(nil)

// NewGuard wraps sink. Non-positive arguments default to 3 failures and a
// one minute cooldown.
func NewGuard(sink Sink, maxFailures int, cooldown time.Duration) *Guard {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &Guard{sink: sink, maxFailures: maxFailures, cooldown: cooldown}
}

// Name returns the wrapped sink's name.
func (g *Guard) Name() string { return g.sink.Name() }

// Import forwards to the wrapped sink unless it is suspended.
func (g *Guard) Import(ctx context.Context, t *pbs.Table) (int, error) {
	g.mu.Lock()
	if g.suspendedLocked() {
		g.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrSinkSuspended, g.sink.Name())
	}
	g.mu.Unlock()

	n, err := g.sink.Import(ctx, t)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		// Cancellation says nothing about the sink's health.
		if ctx.Err() != nil {
			return n, err
		}
		g.failures++
		if g.failures >= g.maxFailures {
			g.suspendAt = time.Now()
			slog.Warn("export: sink suspended",
				"sink", g.sink.Name(),
				"consecutive_failures", g.failures,
				"cooldown", g.cooldown,
			)
		}
		return n, err
	}
	if g.failures >= g.maxFailures {
		slog.Info("export: sink resumed", "sink", g.sink.Name())
	}
	g.failures = 0
	return n, nil
}

// Suspended reports whether imports are currently being rejected.
func (g *Guard) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspendedLocked()
}

// Must be called with g.mu held.
func (g *Guard) suspendedLocked() bool {
	return g.failures >= g.maxFailures && time.Since(g.suspendAt) < g.cooldown
}
