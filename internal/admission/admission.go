// Package admission bounds the number of concurrently in-flight
// ledger-mutating operations. Buys acquire a permit before doing
// anything; sells are not permit-gated but still count against the same
// ceiling, so a burst of exits blocks new entries instead of stacking
// risk on top of them.
package admission

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Controller is a counting-permit admission gate.
type Controller struct {
	mu          sync.Mutex
	capacity    int
	available   int
	activeSells int
	waitCh      chan struct{} // closed and replaced on every release
}

// New creates a controller with the given capacity. Capacity is the
// configured maximum number of concurrent positions.
func New(capacity int) *Controller {
	if capacity < 1 {
		capacity = 1
	}
	return &Controller{
		capacity:  capacity,
		available: capacity,
		waitCh:    make(chan struct{}),
	}
}

// admittable reports whether a new buy may start right now. Must be
// called with mu held.
func (c *Controller) admittable() bool {
	if c.available <= 0 {
		return false
	}
	return (c.capacity-c.available)+c.activeSells < c.capacity
}

// TryAdmit attempts a non-blocking acquisition. The returned release is
// nil when denied; when granted it is idempotent and must be called on
// every exit path.
func (c *Controller) TryAdmit() (release func(), granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.admittable() {
		return nil, false
	}
	c.available--
	return c.releaseFunc(), true
}

// Acquire blocks until a permit is free or ctx is done. The returned
// release is idempotent; callers defer it immediately.
func (c *Controller) Acquire(ctx context.Context) (release func(), err error) {
	for {
		c.mu.Lock()
		if c.admittable() {
			c.available--
			rel := c.releaseFunc()
			c.mu.Unlock()
			return rel, nil
		}
		ch := c.waitCh
		c.mu.Unlock()

		log.Debug().Int("capacity", c.capacity).Msg("admission saturated, waiting for a slot")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}

// releaseFunc builds the once-only release for one granted permit.
// Must be called with mu held.
func (c *Controller) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.available++
			close(c.waitCh)
			c.waitCh = make(chan struct{})
			c.mu.Unlock()
		})
	}
}

// AddSell registers an in-flight sell against the admission budget.
func (c *Controller) AddSell() {
	c.mu.Lock()
	c.activeSells++
	c.mu.Unlock()
}

// DoneSell unregisters a finished sell and wakes blocked buyers.
func (c *Controller) DoneSell() {
	c.mu.Lock()
	if c.activeSells > 0 {
		c.activeSells--
	}
	close(c.waitCh)
	c.waitCh = make(chan struct{})
	c.mu.Unlock()
}

// InFlight returns the current admitted count: buys holding permits plus
// registered sells.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (c.capacity - c.available) + c.activeSells
}

// Capacity returns the configured ceiling.
func (c *Controller) Capacity() int {
	return c.capacity
}
