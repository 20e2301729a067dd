package game

import (
	"sync"
	"time"
)

// Ticker is the periodic source behind the countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a Ticker; tests swap it for a manual one.
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Countdown runs one cancellable periodic task at a time.
// Starting a new run always stops the previous one first.
type Countdown struct {
	interval  time.Duration
	newTicker TickerFunc

	mu   sync.Mutex
	stop chan struct{}
}

// NewCountdown creates a stopped countdown.
func NewCountdown(interval time.Duration, newTicker TickerFunc) *Countdown {
	if interval <= 0 {
		interval = tickInterval
	}
	if newTicker == nil {
		newTicker = NewStdTicker
	}
	return &Countdown{interval: interval, newTicker: newTicker}
}

// Start launches onTick once per interval until Stop is called.
func (c *Countdown) Start(onTick func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	stop := make(chan struct{})
	c.stop = stop
	ticker := c.newTicker(c.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				select {
				case <-stop:
					return
				default:
				}
				onTick()
			}
		}
	}()
}

// Stop cancels the running task. Safe to call repeatedly.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether a task is live.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
