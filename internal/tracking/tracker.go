package tracking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"driver-parkmate/internal/shared/geo"
)

// ErrLocationUnavailable covers permission denials and fix timeouts. It is
// reported through the watch's error callback and is recoverable; the watch
// keeps waiting for later fixes.
var ErrLocationUnavailable = errors.New("location unavailable")

// Watch is the handle for one active observation.
type Watch struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// Tracker owns the single position observation. Start while a watch is
// active returns the existing handle; Stop is idempotent and never fails
// when already stopped. Fixes are stamped with an increasing sequence and
// samples older than the newest delivered fix are discarded.
type Tracker struct {
	provider Provider
	opts     WatchOptions

	mu       sync.Mutex
	watch    *Watch
	cancel   func()
	timer    *time.Timer
	seq      uint64
	lastAt   time.Time
	lastFix  *Fix
	gotFirst bool
}

func NewTracker(provider Provider, opts WatchOptions) *Tracker {
	return &Tracker{provider: provider, opts: opts}
}

// Start begins continuous observation. onUpdate receives sequence-stamped
// fixes at whatever cadence the provider delivers; onError receives
// recoverable failures, including the first-fix timeout.
func (t *Tracker) Start(onUpdate func(Fix), onError func(error)) (*Watch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.watch != nil {
		return t.watch, nil
	}

	cancel, err := t.provider.Watch(t.opts,
		func(pos geo.Position, accuracyM float64, recordedAt time.Time) {
			t.deliver(pos, accuracyM, recordedAt, onUpdate)
		},
		func(cause error) {
			if onError != nil {
				onError(errors.Join(ErrLocationUnavailable, cause))
			}
		},
	)
	if err != nil {
		return nil, errors.Join(ErrLocationUnavailable, err)
	}

	t.watch = &Watch{ID: uuid.NewString(), StartedAt: time.Now()}
	t.cancel = cancel
	t.gotFirst = false
	t.lastAt = time.Time{}

	if t.opts.FirstFixIn > 0 {
		t.timer = time.AfterFunc(t.opts.FirstFixIn, func() {
			t.mu.Lock()
			missed := t.watch != nil && !t.gotFirst
			t.mu.Unlock()
			if missed && onError != nil {
				onError(ErrLocationUnavailable)
			}
		})
	}
	return t.watch, nil
}

// Stop tears the observation down. Safe to call repeatedly.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	timer := t.timer
	t.watch = nil
	t.cancel = nil
	t.timer = nil
	t.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// Active reports the current watch handle, if any.
func (t *Tracker) Active() *Watch {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watch
}

// LastFix returns the most recent delivered fix.
func (t *Tracker) LastFix() *Fix {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastFix
}

func (t *Tracker) deliver(pos geo.Position, accuracyM float64, recordedAt time.Time, onUpdate func(Fix)) {
	t.mu.Lock()
	if t.watch == nil {
		t.mu.Unlock()
		return
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	// a sample recorded before the newest delivered one arrived late; drop it
	if t.gotFirst && !recordedAt.After(t.lastAt) {
		t.mu.Unlock()
		return
	}
	t.gotFirst = true
	t.lastAt = recordedAt
	t.seq++
	fix := Fix{Seq: t.seq, Position: pos, AccuracyM: accuracyM, RecordedAt: recordedAt}
	t.lastFix = &fix
	t.mu.Unlock()

	if onUpdate != nil {
		onUpdate(fix)
	}
}
