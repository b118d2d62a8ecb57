package backend

import "time"

// Lot is a read-only snapshot of a parking lot owned by the backend.
type Lot struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	PricePerHour  int64   `json:"pricePerHour"`
	TotalSpots    int     `json:"totalSpots"`
	OccupiedSpots int     `json:"occupiedSpots"`
	Status        string  `json:"status"`
	Type          string  `json:"type"`
}

const (
	LotAvailable = "available"
	LotFull      = "full"
)

// Session is the backend's view of an open parking session.
type Session struct {
	ID          string    `json:"_id"`
	LotID       string    `json:"parkingLotId"`
	StartTime   time.Time `json:"startTime"`
	VehicleType string    `json:"vehicleType"`
	Status      string    `json:"status"`
	ParkingLot  *Lot      `json:"parkingLot,omitempty"`
}

// ProcessRequest is the guard-process payload. The backend alone decides
// whether it results in a check-in or a check-out.
type ProcessRequest struct {
	UserID       string `json:"userId"`
	QRCode       string `json:"qrCode"`
	ParkingLotID string `json:"parkingLotId"`
	VehicleType  string `json:"vehicleType"`
}

// ScanOutcome is the backend's verdict on a processed pass.
type ScanOutcome struct {
	Type    string   `json:"type"` // "checkin" or "checkout"
	Message string   `json:"message"`
	Data    ScanData `json:"data"`
}

type ScanData struct {
	UserName string `json:"userName"`
	LotName  string `json:"lotName"`
	Duration string `json:"duration,omitempty"`
	Amount   *int64 `json:"amount,omitempty"`
}

const (
	OutcomeCheckIn  = "checkin"
	OutcomeCheckOut = "checkout"
)
