package service

import (
	"time"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

const (
	maxFailedAttempts = 3
	lockDuration      = 15 * time.Minute
)

// lockoutGuard is the pure login throttling state machine. It mutates the
// customer's lockout fields in place; persisting them is the caller's job.
type lockoutGuard struct {
	now func() time.Time
}

// check rejects the attempt while a lock is active. An expired lock is
// cleared lazily here, together with the attempt counter, so the next
// failure starts a fresh count.
func (g lockoutGuard) check(c *domain.Customer) error {
	if c.LockedUntil == nil {
		return nil
	}
	if c.LockedUntil.After(g.now()) {
		return &domain.ErrAccountLocked{UnlockAt: *c.LockedUntil}
	}
	c.LockedUntil = nil
	c.LoginAttempts = 0
	return nil
}

// recordFailure bumps the counter and starts a lock once the threshold is
// reached.
func (g lockoutGuard) recordFailure(c *domain.Customer) {
	c.LoginAttempts++
	if c.LoginAttempts >= maxFailedAttempts {
		until := g.now().Add(lockDuration)
		c.LockedUntil = &until
	}
}

// recordSuccess clears all lockout state.
func (g lockoutGuard) recordSuccess(c *domain.Customer) {
	now := g.now()
	c.LoginAttempts = 0
	c.LockedUntil = nil
	c.LastLoginAt = &now
}
