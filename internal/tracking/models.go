package tracking

import (
	"time"

	"driver-parkmate/internal/shared/geo"
)

// Fix is one position sample. Seq is assigned by the tracker in delivery
// order; consumers use it to drop late-arriving samples.
type Fix struct {
	Seq        uint64       `json:"seq"`
	Position   geo.Position `json:"position"`
	AccuracyM  float64      `json:"accuracy_m,omitempty"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// WatchOptions mirror the geolocation provider's knobs: high-accuracy fixes,
// a deadline for the first fix, and a maximum acceptable fix age (zero means
// cached fixes are never acceptable).
type WatchOptions struct {
	HighAccuracy bool
	FirstFixIn   time.Duration
	MaximumAge   time.Duration
}

func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		HighAccuracy: true,
		FirstFixIn:   5 * time.Second,
		MaximumAge:   0,
	}
}
