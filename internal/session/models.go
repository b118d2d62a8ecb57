package session

import (
	"time"

	"driver-parkmate/internal/backend"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Session is the driver's open parking visit. Owned by the lifecycle from
// check-in to checkout confirmation, then discarded.
type Session struct {
	ID           string    `json:"id"`
	LotID        string    `json:"lot_id"`
	LotName      string    `json:"lot_name,omitempty"`
	StartTime    time.Time `json:"start_time"`
	VehicleType  string    `json:"vehicle_type"`
	PricePerHour int64     `json:"price_per_hour"` // 0 when the lot is not resolved yet
	Status       string    `json:"status"`
}

// FromBackend maps the backend's session snapshot into the local model.
func FromBackend(bs backend.Session) Session {
	s := Session{
		ID:          bs.ID,
		LotID:       bs.LotID,
		StartTime:   bs.StartTime,
		VehicleType: bs.VehicleType,
		Status:      bs.Status,
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if bs.ParkingLot != nil {
		s.LotName = bs.ParkingLot.Name
		s.PricePerHour = bs.ParkingLot.PricePerHour
		if s.LotID == "" {
			s.LotID = bs.ParkingLot.ID
		}
	}
	return s
}

// BillSnapshot is the live figure shown while parked. Fully derived from the
// session start, the current time and the lot rate; never stored. The
// backend remains the pricing authority at checkout.
type BillSnapshot struct {
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
	AmountDue      int64  `json:"amount_due"`
	RatePerHour    int64  `json:"rate_per_hour"`
	RateAssumed    bool   `json:"rate_assumed,omitempty"`
}

// CheckoutSummary is the final bill surfaced exactly once after checkout.
type CheckoutSummary struct {
	Session   Session `json:"session"`
	Duration  string  `json:"duration,omitempty"`
	AmountDue int64   `json:"amount_due"`
}
