package lots

import (
	"time"

	"driver-parkmate/internal/backend"
)

// RankedLot is a lot snapshot with the distance from the driver attached.
// DistanceKm is nil when no position is known. Never persisted; recomputed
// on every position sample and every snapshot refresh.
type RankedLot struct {
	backend.Lot
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// Snapshot is the ranked lot list plus its freshness metadata. Stale means
// the figures come from the last-known cache rather than a live refresh;
// the data is still shown, availability wins over freshness.
type Snapshot struct {
	Lots        []RankedLot `json:"lots"`
	Stale       bool        `json:"stale"`
	RefreshedAt time.Time   `json:"refreshed_at"`
}

// Normalize enforces the lot invariants on an incoming snapshot: occupancy
// clamped to [0, total], status derived from it rather than trusted as sent,
// and an unset vehicle type treated as serving both.
func Normalize(lot backend.Lot) backend.Lot {
	if lot.Type == "" {
		lot.Type = "both"
	}
	if lot.OccupiedSpots < 0 {
		lot.OccupiedSpots = 0
	}
	if lot.TotalSpots > 0 && lot.OccupiedSpots > lot.TotalSpots {
		lot.OccupiedSpots = lot.TotalSpots
	}
	if lot.TotalSpots > 0 && lot.OccupiedSpots == lot.TotalSpots {
		lot.Status = backend.LotFull
	} else {
		lot.Status = backend.LotAvailable
	}
	return lot
}
