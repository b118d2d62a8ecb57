package session

import (
	"fmt"
	"sync"
	"time"
)

// DefaultRatePerHour is the fallback when the lot's rate is not resolved
// yet. Using it is a transient-data condition, not an error; the snapshot
// is flagged so the UI can label the figure as assumed.
const DefaultRatePerHour = 25

const tickInterval = time.Second

// ComputeBill derives the live bill. Elapsed time is clamped to zero so
// clock skew cannot produce a negative figure, and any started hour bills
// as a whole hour.
func ComputeBill(start, now time.Time, ratePerHour int64) BillSnapshot {
	elapsed := int64(now.Sub(start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	rate := ratePerHour
	assumed := false
	if rate <= 0 {
		rate = DefaultRatePerHour
		assumed = true
	}

	billedHours := (elapsed + 3599) / 3600
	return BillSnapshot{
		ElapsedSeconds: elapsed,
		Elapsed:        formatElapsed(elapsed),
		AmountDue:      billedHours * rate,
		RatePerHour:    rate,
		RateAssumed:    assumed,
	}
}

func formatElapsed(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Clock recomputes the bill for one active session once per second. It is
// created together with the session and stopped by the lifecycle on any exit
// path; after Stop it holds its last snapshot.
type Clock struct {
	session     Session
	defaultRate int64
	now         func() time.Time
	onTick      func(BillSnapshot)

	mu       sync.Mutex
	last     BillSnapshot
	ticked   bool
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClock(session Session, defaultRate int64, now func() time.Time, onTick func(BillSnapshot)) *Clock {
	if now == nil {
		now = time.Now
	}
	if defaultRate <= 0 {
		defaultRate = DefaultRatePerHour
	}
	return &Clock{
		session:     session,
		defaultRate: defaultRate,
		now:         now,
		onTick:      onTick,
		stopCh:      make(chan struct{}),
	}
}

// Run drives the per-second recomputation until Stop. Call in a goroutine.
func (c *Clock) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	c.Tick()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick computes one snapshot, retains it and notifies the listener. After
// Stop it returns the held value without recomputing.
func (c *Clock) Tick() BillSnapshot {
	c.mu.Lock()
	if c.stopped {
		last := c.last
		c.mu.Unlock()
		return last
	}
	rate := c.session.PricePerHour
	assumed := false
	if rate <= 0 {
		rate = c.defaultRate
		assumed = true
	}
	snapshot := ComputeBill(c.session.StartTime, c.now(), rate)
	snapshot.RateAssumed = assumed
	c.last = snapshot
	c.ticked = true
	onTick := c.onTick
	c.mu.Unlock()

	if onTick != nil {
		onTick(snapshot)
	}
	return snapshot
}

// Snapshot returns the current figure without waiting for the next tick.
func (c *Clock) Snapshot() BillSnapshot {
	c.mu.Lock()
	if c.stopped || c.ticked {
		last := c.last
		c.mu.Unlock()
		return last
	}
	c.mu.Unlock()
	return c.Tick()
}

// Stop freezes the clock at its last computed value. Idempotent.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		close(c.stopCh)
	})
}
