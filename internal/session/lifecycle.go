package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/stream"
)

type State string

const (
	StateIdle   State = "idle"
	StateParked State = "parked"
)

// ErrDuplicateCheckIn rejects a second check-in while a session is active;
// the first session is left untouched. A second scan of the same pass must
// not silently replace the open session.
var ErrDuplicateCheckIn = errors.New("a parking session is already active")

// ErrNotParked rejects a checkout with no active session.
var ErrNotParked = errors.New("no active parking session")

// SessionAPI is the backend slice used for rehydration.
type SessionAPI interface {
	ActiveSession(ctx context.Context, bearer string) (*backend.Session, error)
}

// Lifecycle owns the driver's parking state: idle or parked with exactly one
// session. CheckIn and CheckOut are the only mutators. The billing clock's
// lifetime is bound 1:1 to the active session so a session ending on any
// path also ends its clock.
type Lifecycle struct {
	hub         *stream.Hub
	defaultRate int64
	now         func() time.Time

	mu         sync.Mutex
	state      State
	current    *Session
	clock      *Clock
	checkout   *CheckoutSummary
	rehydrated bool
}

func NewLifecycle(hub *stream.Hub, defaultRate int64, now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{
		hub:         hub,
		defaultRate: defaultRate,
		now:         now,
		state:       StateIdle,
	}
}

// CheckIn transitions idle -> parked. Fails with ErrDuplicateCheckIn while
// parked, leaving the original session untouched.
func (l *Lifecycle) CheckIn(s Session) error {
	l.mu.Lock()
	if l.state == StateParked {
		l.mu.Unlock()
		return ErrDuplicateCheckIn
	}
	s.Status = StatusActive
	l.state = StateParked
	l.current = &s
	l.checkout = nil
	l.startClockLocked()
	l.mu.Unlock()

	l.broadcastState()
	return nil
}

// CheckOut transitions parked -> idle, freezes the clock and surfaces the
// backend's final bill. The session object is discarded; the summary can be
// consumed exactly once.
func (l *Lifecycle) CheckOut(amountDue int64, duration string) (CheckoutSummary, error) {
	l.mu.Lock()
	if l.state != StateParked || l.current == nil {
		l.mu.Unlock()
		return CheckoutSummary{}, ErrNotParked
	}

	closed := *l.current
	closed.Status = StatusClosed
	summary := CheckoutSummary{Session: closed, Duration: duration, AmountDue: amountDue}

	l.stopClockLocked()
	l.state = StateIdle
	l.current = nil
	l.checkout = &summary
	l.mu.Unlock()

	l.broadcastState()
	return summary, nil
}

// Rehydrate adopts an already-open session found on the backend at process
// start. This is recovery, not a fresh transition: an existing parked state
// is left alone, and finding nothing simply confirms idle.
func (l *Lifecycle) Rehydrate(ctx context.Context, api SessionAPI, bearer string) error {
	l.mu.Lock()
	if l.rehydrated || l.state == StateParked {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	bs, err := api.ActiveSession(ctx, bearer)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rehydrated = true
	if bs == nil || l.state == StateParked {
		return nil
	}
	adopted := FromBackend(*bs)
	l.state = StateParked
	l.current = &adopted
	l.startClockLocked()
	return nil
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Current returns a copy of the active session, or nil when idle.
func (l *Lifecycle) Current() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil
	}
	s := *l.current
	return &s
}

// Bill returns the live snapshot while parked.
func (l *Lifecycle) Bill() (BillSnapshot, bool) {
	l.mu.Lock()
	clock := l.clock
	parked := l.state == StateParked
	l.mu.Unlock()
	if !parked || clock == nil {
		return BillSnapshot{}, false
	}
	return clock.Snapshot(), true
}

// ConsumeFinalBill hands out the checkout summary once, then discards it.
func (l *Lifecycle) ConsumeFinalBill() *CheckoutSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	summary := l.checkout
	l.checkout = nil
	return summary
}

// Close stops any running clock; used on shutdown.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopClockLocked()
}

func (l *Lifecycle) startClockLocked() {
	l.stopClockLocked()
	clock := NewClock(*l.current, l.defaultRate, l.now, l.onTick)
	l.clock = clock
	go clock.Run()
}

func (l *Lifecycle) stopClockLocked() {
	if l.clock != nil {
		l.clock.Stop()
	}
}

func (l *Lifecycle) onTick(snapshot BillSnapshot) {
	if l.hub == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	l.hub.Broadcast(stream.TopicBill, payload)
}

type stateEvent struct {
	State   State    `json:"state"`
	Session *Session `json:"session,omitempty"`
}

func (l *Lifecycle) broadcastState() {
	if l.hub == nil {
		return
	}
	payload, err := json.Marshal(stateEvent{State: l.State(), Session: l.Current()})
	if err != nil {
		return
	}
	l.hub.Broadcast(stream.TopicSession, payload)
}
