// Package countdown tracks wall-clock time against an auction's fixed end
// time. It only reflects the end of bidding for display purposes; actually
// closing an auction is the bid authority's responsibility.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"marketplace-bidding/internal/clock"
)

// DefaultEndingSoonWindow is the remaining time below which an auction is
// flagged as ending soon.
const DefaultEndingSoonWindow = time.Hour

// DefaultInterval is how often a running countdown recomputes.
const DefaultInterval = time.Second

// Snapshot is one observation of the remaining auction time.
type Snapshot struct {
	Remaining  time.Duration
	Display    string
	EndingSoon bool
	Ended      bool
}

// Countdown recomputes the remaining time on a timer and raises the end
// event exactly once when the remaining time crosses zero.
type Countdown struct {
	end              time.Time
	clk              clock.Clock
	interval         time.Duration
	endingSoonWindow time.Duration

	onTick func(Snapshot)
	onEnd  func()

	startOnce sync.Once
	stopOnce  sync.Once
	endOnce   sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a Countdown.
type Option func(*Countdown)

// WithClock injects the time source (tests use a fixed clock).
func WithClock(clk clock.Clock) Option {
	return func(c *Countdown) { c.clk = clk }
}

// WithInterval overrides the recomputation interval.
func WithInterval(interval time.Duration) Option {
	return func(c *Countdown) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithEndingSoonWindow overrides the ending-soon threshold.
func WithEndingSoonWindow(window time.Duration) Option {
	return func(c *Countdown) {
		if window > 0 {
			c.endingSoonWindow = window
		}
	}
}

// OnTick registers the per-recomputation observer.
func OnTick(fn func(Snapshot)) Option {
	return func(c *Countdown) { c.onTick = fn }
}

// OnEnd registers the end-of-auction callback, invoked exactly once.
func OnEnd(fn func()) Option {
	return func(c *Countdown) { c.onEnd = fn }
}

// New creates a countdown towards the given end time.
func New(end time.Time, opts ...Option) *Countdown {
	c := &Countdown{
		end:              end,
		clk:              clock.NewSystem(),
		interval:         DefaultInterval,
		endingSoonWindow: DefaultEndingSoonWindow,
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot computes the current remaining-time view without side effects.
func (c *Countdown) Snapshot() Snapshot {
	remaining := c.end.Sub(c.clk.Now())
	if remaining <= 0 {
		return Snapshot{Remaining: 0, Display: "Ended", Ended: true}
	}
	return Snapshot{
		Remaining:  remaining,
		Display:    FormatRemaining(remaining),
		EndingSoon: remaining < c.endingSoonWindow,
	}
}

// Start launches the ticking goroutine. Calling Start more than once has no
// effect.
func (c *Countdown) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

func (c *Countdown) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Emit immediately so the first paint does not wait a full interval.
	if c.emit() {
		return
	}
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if c.emit() {
				return
			}
		}
	}
}

// emit reports one snapshot; returns true once the auction has ended and
// ticking should stop.
func (c *Countdown) emit() bool {
	snap := c.Snapshot()
	if c.onTick != nil {
		c.onTick(snap)
	}
	if snap.Ended {
		c.endOnce.Do(func() {
			if c.onEnd != nil {
				c.onEnd()
			}
		})
		return true
	}
	return false
}

// Stop cancels the countdown. It is idempotent and safe to call whether or
// not the countdown ended on its own; the view calls it on unmount and when
// navigating to a different auction.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Done is closed once the ticking goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// FormatRemaining renders a remaining duration for display, omitting any
// leading unit that is zero at the largest scale: "2d 3h 2m 10s",
// "3h 2m 10s", "2m 10s", "42s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
