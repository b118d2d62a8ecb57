package tracking

import (
	"encoding/json"
	"errors"
	"time"

	"driver-parkmate/internal/shared/geo"
	"driver-parkmate/internal/stream"
)

// PositionSink consumes sequence-stamped positions; implemented by the lots
// ranking service.
type PositionSink interface {
	SetPosition(seq uint64, pos geo.Position) bool
}

// Service wires the tracker to the ranking sink and the UI stream.
type Service struct {
	tracker  *Tracker
	provider *PushProvider
	hub      *stream.Hub
	sink     PositionSink
}

func NewService(provider *PushProvider, opts WatchOptions, sink PositionSink, hub *stream.Hub) *Service {
	return &Service{
		tracker:  NewTracker(provider, opts),
		provider: provider,
		hub:      hub,
		sink:     sink,
	}
}

// StartWatch begins observation; a second call returns the same handle.
func (s *Service) StartWatch() (*Watch, error) {
	return s.tracker.Start(s.onFix, s.onWatchError)
}

func (s *Service) StopWatch() {
	s.tracker.Stop()
}

func (s *Service) ActiveWatch() *Watch {
	return s.tracker.Active()
}

func (s *Service) LastFix() *Fix {
	return s.tracker.LastFix()
}

// PushFix ingests a sample forwarded by the UI. Returns false when no watch
// is active.
func (s *Service) PushFix(pos geo.Position, accuracyM float64, recordedAt time.Time) bool {
	return s.provider.Push(pos, accuracyM, recordedAt)
}

// ReportFailure forwards a provider-side failure (permission denied, no
// signal) into the active watch.
func (s *Service) ReportFailure(reason string) bool {
	return s.provider.Fail(errors.New(reason))
}

func (s *Service) onFix(fix Fix) {
	if s.sink != nil {
		s.sink.SetPosition(fix.Seq, fix.Position)
	}
	if s.hub != nil {
		payload, err := json.Marshal(fix)
		if err != nil {
			return
		}
		s.hub.Broadcast(stream.TopicTracking, payload)
	}
}

func (s *Service) onWatchError(err error) {
	if s.hub == nil {
		return
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return
	}
	s.hub.Broadcast(stream.TopicTracking, payload)
}
