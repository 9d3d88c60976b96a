/*
clockdriver.go - Wall-time driver for the logical clock

PURPOSE:
  The engine only understands logical ticks. Deployments that want time
  to pass on its own run a ClockDriver: a background goroutine advancing
  the shared ManualClock once per wall-time interval. Deployments that
  drive time by hand (demos, tests) skip the driver and use the admin
  advance endpoint instead.

USAGE:
  driver := NewClockDriver(handler.Clock(), cfg.TickInterval, logger)
  driver.Start()
  // ... later
  driver.Stop()

SEE ALSO:
  - market/clock.go: The clock being driven
  - handlers.go: AdvanceClock (manual path)
*/
package api

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/storefront-engine/market"
)

// ClockDriver advances a ManualClock once per interval.
type ClockDriver struct {
	Clock    *market.ManualClock
	Interval time.Duration

	logger zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewClockDriver creates a driver. An interval of zero disables it.
func NewClockDriver(clock *market.ManualClock, interval time.Duration, logger zerolog.Logger) *ClockDriver {
	return &ClockDriver{
		Clock:    clock,
		Interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking. A zero or negative interval is a no-op.
func (d *ClockDriver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Interval <= 0 {
		d.logger.Info().Msg("clock driver disabled, logical time is manual")
		return
	}
	if d.ticker != nil {
		return
	}

	d.ticker = time.NewTicker(d.Interval)
	d.wg.Add(1)
	go d.run()

	d.logger.Info().Dur("interval", d.Interval).Msg("clock driver started")
}

// Stop halts ticking and waits for the driver goroutine to exit. Safe to
// call when the driver never started.
func (d *ClockDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ticker == nil {
		return
	}
	d.ticker.Stop()
	close(d.stop)
	d.wg.Wait()
	d.ticker = nil

	d.logger.Info().Uint64("now", d.Clock.Now()).Msg("clock driver stopped")
}

func (d *ClockDriver) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ticker.C:
			now := d.Clock.Advance(1)
			d.logger.Debug().Uint64("now", now).Msg("tick")
		case <-d.stop:
			return
		}
	}
}
