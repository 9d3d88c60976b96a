/*
clock.go - Logical time for the engine

PURPOSE:
  The engine never reads wall time. Every transaction is stamped with a
  logical tick read from an injected Clock, and the return window is
  measured in ticks. Hosts decide what a tick means: a block height, a
  request counter, a wall-clock interval driven from outside.

WHY LOGICAL TIME?
  - Determinism: tests set the clock exactly where they need it
  - Portability: the same engine runs under a contract runtime, a CLI,
    or a long-lived service without touching time.Time
  - Auditability: sequences order the log without clock skew questions

SEE ALSO:
  - service.go: Stamps transactions with clock.Now()
  - api/clockdriver.go: Advances a ManualClock on a wall-time interval
*/
package market

import "sync/atomic"

// =============================================================================
// CLOCK - Injected logical time source
// =============================================================================

// Clock supplies the engine's logical time. Now must be monotonically
// non-decreasing and safe for concurrent use.
type Clock interface {
	Now() uint64
}

// =============================================================================
// MANUAL CLOCK - Externally advanced tick counter
// =============================================================================

// ManualClock is a Clock advanced explicitly by the host. It starts at 0.
// The zero value is ready to use.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock returns a clock at tick 0.
func NewManualClock() *ManualClock { return &ManualClock{} }

// Now returns the current tick.
func (c *ManualClock) Now() uint64 { return c.now.Load() }

// Advance moves the clock forward by delta ticks and returns the new value.
func (c *ManualClock) Advance(delta uint64) uint64 { return c.now.Add(delta) }
