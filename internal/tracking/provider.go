package tracking

import (
	"sync"
	"time"

	"driver-parkmate/internal/shared/geo"
)

// Provider is the platform geolocation source. Watch begins delivering raw
// samples until the returned cancel func runs. Asking for location access
// may prompt the user the first time.
type Provider interface {
	Watch(opts WatchOptions, onSample func(geo.Position, float64, time.Time), onError func(error)) (cancel func(), err error)
}

// PushProvider is a Provider fed over the local API: the UI forwards the
// browser's geolocation samples to the agent.
type PushProvider struct {
	mu       sync.Mutex
	onSample func(geo.Position, float64, time.Time)
	onError  func(error)
}

func NewPushProvider() *PushProvider {
	return &PushProvider{}
}

func (p *PushProvider) Watch(_ WatchOptions, onSample func(geo.Position, float64, time.Time), onError func(error)) (func(), error) {
	p.mu.Lock()
	p.onSample = onSample
	p.onError = onError
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		p.onSample = nil
		p.onError = nil
		p.mu.Unlock()
	}, nil
}

// Push hands a sample to the active watch. Samples pushed while no watch is
// active are dropped.
func (p *PushProvider) Push(pos geo.Position, accuracyM float64, recordedAt time.Time) bool {
	p.mu.Lock()
	onSample := p.onSample
	p.mu.Unlock()
	if onSample == nil {
		return false
	}
	onSample(pos, accuracyM, recordedAt)
	return true
}

// Fail reports a provider-side failure (permission denied, no signal) to the
// active watch.
func (p *PushProvider) Fail(err error) bool {
	p.mu.Lock()
	onError := p.onError
	p.mu.Unlock()
	if onError == nil {
		return false
	}
	onError(err)
	return true
}
