package timer

import (
	"sync"
	"time"
)

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every interval.
type TickerFunc func(interval time.Duration) Ticker

type wallTicker struct {
	ticker *time.Ticker
}

func (t wallTicker) C() <-chan time.Time { return t.ticker.C }
func (t wallTicker) Stop()               { t.ticker.Stop() }

// NewWallTicker is the TickerFunc backed by time.Ticker.
func NewWallTicker(interval time.Duration) Ticker {
	return wallTicker{ticker: time.NewTicker(interval)}
}

// Clock runs one tick loop at a time. Disarm returns without waiting for
// the loop to exit, so it is safe to call from inside the tick callback;
// callers must tolerate a tick that was already in flight.
type Clock struct {
	mu        sync.Mutex
	interval  time.Duration
	newTicker TickerFunc
	ticker    Ticker
	stopCh    chan struct{}
}

func NewClock(interval time.Duration, newTicker TickerFunc) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	if newTicker == nil {
		newTicker = NewWallTicker
	}
	return &Clock{
		interval:  interval,
		newTicker: newTicker,
	}
}

// Arm replaces any running loop with one that calls onTick per tick.
func (c *Clock) Arm(onTick func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked()
	stopCh := make(chan struct{})
	ticker := c.newTicker(c.interval)
	c.stopCh = stopCh
	c.ticker = ticker

	go run(ticker, stopCh, onTick)
}

// Disarm cancels the pending tick.
func (c *Clock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

func (c *Clock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopCh != nil
}

func (c *Clock) disarmLocked() {
	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	c.ticker.Stop()
	c.stopCh = nil
	c.ticker = nil
}

func run(ticker Ticker, stopCh <-chan struct{}, onTick func()) {
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			select {
			case <-stopCh:
				return
			default:
			}
			onTick()
		}
	}
}
