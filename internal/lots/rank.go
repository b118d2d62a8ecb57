package lots

import (
	"sort"

	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/shared/geo"
)

// Rank attaches the driver's distance to each lot and sorts ascending.
// With no position it returns the lots in their original order and no
// distances. The sort is stable so equal distances keep their input order,
// and calling it again with the same inputs yields the same output —
// re-ranking on both position ticks and snapshot refreshes is harmless.
func Rank(userPos *geo.Position, ls []backend.Lot) []RankedLot {
	ranked := make([]RankedLot, 0, len(ls))
	for _, lot := range ls {
		r := RankedLot{Lot: lot}
		if userPos != nil {
			d := geo.HaversineKm(userPos.Lat, userPos.Lon, lot.Lat, lot.Lon)
			r.DistanceKm = &d
		}
		ranked = append(ranked, r)
	}

	if userPos == nil {
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].DistanceKm < *ranked[j].DistanceKm
	})
	return ranked
}

// FilterType keeps lots matching the requested vehicle type. Lots typed
// "both" match everything; an empty filter keeps everything.
func FilterType(ls []RankedLot, vehicleType string) []RankedLot {
	if vehicleType == "" {
		return ls
	}
	out := make([]RankedLot, 0, len(ls))
	for _, lot := range ls {
		if lot.Type == vehicleType || lot.Type == "both" {
			out = append(out, lot)
		}
	}
	return out
}
