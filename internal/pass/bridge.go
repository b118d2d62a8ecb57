package pass

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/session"
)

// ErrMalformedPass means the scanned payload is not a usable pass. The scan
// still counts: the scanner latches so a bad code is not re-fired every frame.
var ErrMalformedPass = errors.New("malformed pass payload")

// ErrScanCoolingDown rejects scans while the latch from the previous scan is
// still engaged.
var ErrScanCoolingDown = errors.New("scanner is cooling down")

const defaultVehicleType = "car"

// Payload is the decoded QR content as the UI hands it over.
type Payload struct {
	UserID string `json:"userId"`
	QRCode string `json:"qrCode"`
}

// Result pairs a scan with the backend's verdict.
type Result struct {
	ScanID  string               `json:"scan_id"`
	Outcome *backend.ScanOutcome `json:"outcome"`
}

type ScannerAPI interface {
	ProcessPass(ctx context.Context, bearer string, req backend.ProcessRequest) (*backend.ScanOutcome, error)
}

// RateSource resolves a lot's hourly rate for the local session clock.
type RateSource interface {
	Rate(lotID string) (int64, bool)
}

// Bridge turns scanned passes into lifecycle transitions. One scan is
// processed at a time; after any completed scan the bridge latches until
// Reset (or until the cooldown expires, when one is configured), so a code
// sitting in front of the camera cannot fire twice.
type Bridge struct {
	api       ScannerAPI
	lifecycle *session.Lifecycle
	rates     RateSource
	cooldown  time.Duration // 0 = latched until Reset
	now       func() time.Time

	mu        sync.Mutex
	inFlight  bool
	latched   bool
	latchedAt time.Time
}

func NewBridge(api ScannerAPI, lifecycle *session.Lifecycle, rates RateSource, cooldown time.Duration, now func() time.Time) *Bridge {
	if now == nil {
		now = time.Now
	}
	return &Bridge{
		api:       api,
		lifecycle: lifecycle,
		rates:     rates,
		cooldown:  cooldown,
		now:       now,
	}
}

// Process validates the payload, asks the backend for its check-in/check-out
// verdict and applies it to the lifecycle. A transport failure leaves the
// latch open so the driver can simply scan again; every other completion
// engages it.
func (b *Bridge) Process(ctx context.Context, bearer string, payload Payload, lotID, vehicleType string) (*Result, error) {
	if !b.arm() {
		return nil, ErrScanCoolingDown
	}

	if strings.TrimSpace(payload.UserID) == "" || strings.TrimSpace(payload.QRCode) == "" {
		b.latch()
		return nil, ErrMalformedPass
	}
	if vehicleType == "" {
		vehicleType = defaultVehicleType
	}

	outcome, err := b.api.ProcessPass(ctx, bearer, backend.ProcessRequest{
		UserID:       payload.UserID,
		QRCode:       payload.QRCode,
		ParkingLotID: lotID,
		VehicleType:  vehicleType,
	})
	if err != nil {
		if errors.Is(err, backend.ErrBackendUnavailable) {
			b.release()
		} else {
			b.latch()
		}
		return nil, err
	}

	b.latch()
	if err := b.apply(outcome, lotID, vehicleType); err != nil {
		return nil, err
	}
	return &Result{ScanID: uuid.NewString(), Outcome: outcome}, nil
}

func (b *Bridge) apply(outcome *backend.ScanOutcome, lotID, vehicleType string) error {
	switch outcome.Type {
	case backend.OutcomeCheckIn:
		var rate int64
		if b.rates != nil {
			if r, ok := b.rates.Rate(lotID); ok {
				rate = r
			}
		}
		return b.lifecycle.CheckIn(session.Session{
			ID:           uuid.NewString(),
			LotID:        lotID,
			LotName:      outcome.Data.LotName,
			StartTime:    b.now(),
			VehicleType:  vehicleType,
			PricePerHour: rate,
		})
	case backend.OutcomeCheckOut:
		var amount int64
		if outcome.Data.Amount != nil {
			amount = *outcome.Data.Amount
		}
		_, err := b.lifecycle.CheckOut(amount, outcome.Data.Duration)
		return err
	default:
		return ErrMalformedPass
	}
}

// Reset releases the latch so the next scan goes through.
func (b *Bridge) Reset() {
	b.mu.Lock()
	b.latched = false
	b.mu.Unlock()
}

// Latched reports whether the scanner is currently refusing new scans.
func (b *Bridge) Latched() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight || b.latchedLocked()
}

// arm claims the scanner for one attempt. The claim engages before the
// backend is contacted: consecutive camera frames of the same code arrive
// faster than a round trip, and the second frame must be refused while the
// first is still in flight.
func (b *Bridge) arm() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight || b.latchedLocked() {
		return false
	}
	b.inFlight = true
	return true
}

// latch converts the in-flight claim into the cooldown latch.
func (b *Bridge) latch() {
	b.mu.Lock()
	b.inFlight = false
	b.latched = true
	b.latchedAt = b.now()
	b.mu.Unlock()
}

// release frees the claim without latching; the driver can scan again
// immediately after a transport failure.
func (b *Bridge) release() {
	b.mu.Lock()
	b.inFlight = false
	b.mu.Unlock()
}

func (b *Bridge) latchedLocked() bool {
	if !b.latched {
		return false
	}
	if b.cooldown > 0 && b.now().Sub(b.latchedAt) >= b.cooldown {
		b.latched = false
		return false
	}
	return true
}
