// Package guard throttles authentication attempts per (identifier, source).
//
// Crossing Threshold failures within Window locks the pair out for
// LockoutDuration. Counters live in an injected Store and are never
// authoritative for account status. When the store misbehaves the guard
// fails open: the attempt is allowed and a warning is logged.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/timex"
)

// Config holds the lockout thresholds. A non-positive Threshold disables the
// guard.
type Config struct {
	Threshold       int
	Window          time.Duration
	LockoutDuration time.Duration
}

// LockoutError reports an active lockout, or a zero Until when too many
// attempts are already in flight. It matches common.ErrRateLimited.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	if e.Until.IsZero() {
		return "too many concurrent attempts"
	}
	return fmt.Sprintf("too many failed attempts, locked until %s", e.Until.Format(time.RFC3339))
}

func (e *LockoutError) Unwrap() error { return common.ErrRateLimited }

type Guard struct {
	store  Store
	cfg    Config
	clock  timex.Clock
	logger logging.Logger
}

func New(store Store, cfg Config, clock timex.Clock, logger logging.Logger) *Guard {
	return &Guard{store: store, cfg: cfg, clock: clock, logger: logger.With("module", "guard")}
}

func key(identifier, source string) string {
	return identifier + "\x00" + source
}

func (g *Guard) enabled() bool {
	return g.cfg.Threshold > 0
}

// retention is how long a counter is kept after its last update.
func (g *Guard) retention() time.Duration {
	return g.cfg.Window + g.cfg.LockoutDuration
}

// Acquire reserves an authentication attempt for the pair. The reservation
// counts against Threshold until it is resolved, so concurrent attempts
// cannot outrun the failure counter. The caller must resolve the returned
// Attempt with exactly one of Fail, Succeed or Release.
//
// Acquire returns a *LockoutError while the pair is locked out or while
// recorded failures plus attempts in flight already reach Threshold.
func (g *Guard) Acquire(ctx context.Context, identifier, source string) (*Attempt, error) {
	a := &Attempt{g: g, key: key(identifier, source), identifier: identifier, source: source}
	if !g.enabled() {
		return a, nil
	}

	now := g.clock.Now()
	var rejected *LockoutError
	_, err := g.store.Update(ctx, a.key, g.retention(), func(c *Counter) {
		g.prune(c, now)
		if now.Before(c.LockedUntil) {
			rejected = &LockoutError{Until: c.LockedUntil}
			return
		}
		if len(c.Failures)+len(c.Pending) >= g.cfg.Threshold {
			rejected = &LockoutError{}
			return
		}
		c.Pending = append(c.Pending, now)
	})
	if err != nil {
		g.logger.Warn(ctx, "guard store unavailable, allowing attempt", "op", "acquire", "error", err)
		return a, nil
	}
	if rejected != nil {
		return nil, rejected
	}
	a.reserved = true
	a.at = now
	return a, nil
}

// prune drops failures outside the window and reservations that were never
// resolved.
func (g *Guard) prune(c *Counter, now time.Time) {
	kept := c.Failures[:0]
	for _, f := range c.Failures {
		if now.Sub(f) < g.cfg.Window {
			kept = append(kept, f)
		}
	}
	c.Failures = kept

	pending := c.Pending[:0]
	for _, p := range c.Pending {
		if now.Sub(p) < MaxAttemptDuration {
			pending = append(pending, p)
		}
	}
	c.Pending = pending
}

// MaxAttemptDuration bounds how long an unresolved reservation is honored.
const MaxAttemptDuration = time.Minute

// Attempt is one reserved authentication attempt.
type Attempt struct {
	g          *Guard
	key        string
	identifier string
	source     string
	at         time.Time
	reserved   bool

	mu   sync.Mutex
	done bool
}

func (a *Attempt) finish() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return false
	}
	a.done = true
	return true
}

func (a *Attempt) unreserve(c *Counter) {
	if !a.reserved {
		return
	}
	for i, p := range c.Pending {
		if p.Equal(a.at) {
			c.Pending = append(c.Pending[:i], c.Pending[i+1:]...)
			return
		}
	}
}

// Fail turns the reservation into a recorded failure and returns the lockout
// deadline when this failure triggered a lockout, or the zero time otherwise.
func (a *Attempt) Fail(ctx context.Context) time.Time {
	g := a.g
	if !g.enabled() || !a.finish() {
		return time.Time{}
	}
	now := g.clock.Now()
	var lockedNow bool

	c, err := g.store.Update(ctx, a.key, g.retention(), func(c *Counter) {
		a.unreserve(c)
		g.prune(c, now)
		c.Failures = append(c.Failures, now)
		if len(c.Failures) >= g.cfg.Threshold {
			c.LockedUntil = now.Add(g.cfg.LockoutDuration)
			c.Failures = c.Failures[:0]
			lockedNow = true
		}
	})
	if err != nil {
		g.logger.Warn(ctx, "guard store unavailable, failure not recorded", "op", "failure", "error", err)
		return time.Time{}
	}
	if !lockedNow {
		return time.Time{}
	}
	g.logger.Warn(ctx, "authentication locked out", "identifier", a.identifier, "source", a.source, "until", c.LockedUntil)
	return c.LockedUntil
}

// Succeed clears the failure history of the pair. Reservations held by other
// attempts stay in place.
func (a *Attempt) Succeed(ctx context.Context) {
	g := a.g
	if !g.enabled() || !a.finish() {
		return
	}
	now := g.clock.Now()
	_, err := g.store.Update(ctx, a.key, g.retention(), func(c *Counter) {
		a.unreserve(c)
		g.prune(c, now)
		c.Failures = nil
		c.LockedUntil = time.Time{}
	})
	if err != nil {
		g.logger.Warn(ctx, "guard store unavailable, counter not reset", "op", "success", "error", err)
	}
}

// Release gives the reservation back without counting the attempt either
// way. It is used when verification could not reach a verdict.
func (a *Attempt) Release(ctx context.Context) {
	g := a.g
	if !g.enabled() || !a.finish() || !a.reserved {
		return
	}
	_, err := g.store.Update(ctx, a.key, g.retention(), a.unreserve)
	if err != nil {
		g.logger.Warn(ctx, "guard store unavailable, reservation not released", "op", "release", "error", err)
	}
}
