package pass

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/session"
)

func passThrough(c *fiber.Ctx) error { return c.Next() }

func newTestApp(bridge *Bridge) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/scan"), bridge, passThrough)
	return app
}

func postScan(t *testing.T, app *fiber.App, body any) *http.Response {
	t.Helper()
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("scan request: %v", err)
	}
	return resp
}

func TestScanHandlerCheckIn(t *testing.T) {
	api := &stubScanner{outcome: checkInOutcome()}
	bridge, lc := newBridge(api, stubRates{"lot-1": 40}, 0)
	defer lc.Close()
	app := newTestApp(bridge)

	resp := postScan(t, app, scanRequest{
		Payload:      Payload{UserID: "driver-1", QRCode: "qr-abc"},
		ParkingLotID: "lot-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan status = %d", resp.StatusCode)
	}
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Outcome == nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Outcome.Type != backend.OutcomeCheckIn {
		t.Fatalf("outcome type = %q", result.Outcome.Type)
	}
	if lc.State() != session.StateParked {
		t.Fatalf("expected parked after scan")
	}
}

func TestScanHandlerMalformedPass(t *testing.T) {
	// an empty userId fails locally no matter what the network would say
	api := &stubScanner{err: backend.ErrBackendUnavailable}
	bridge, lc := newBridge(api, nil, 0)
	defer lc.Close()
	app := newTestApp(bridge)

	resp := postScan(t, app, map[string]string{"userId": "", "qrCode": "x"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("malformed pass status = %d", resp.StatusCode)
	}
	if api.calls != 0 {
		t.Fatalf("backend must not be called for a malformed pass")
	}

	// latched now; the follow-up scan cools down until reset
	resp = postScan(t, app, scanRequest{Payload: Payload{UserID: "driver-1", QRCode: "qr-abc"}})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("cooldown status = %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/scan/reset", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("reset status: %v %d", err, resp.StatusCode)
	}
	if bridge.Latched() {
		t.Fatalf("expected latch released after reset")
	}
}

func TestScanHandlerBackendDown(t *testing.T) {
	api := &stubScanner{err: backend.ErrBackendUnavailable}
	bridge, lc := newBridge(api, nil, 0)
	defer lc.Close()
	app := newTestApp(bridge)

	resp := postScan(t, app, scanRequest{Payload: Payload{UserID: "driver-1", QRCode: "qr-abc"}})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("backend-down status = %d", resp.StatusCode)
	}
}

func TestScanHandlerDuplicateCheckIn(t *testing.T) {
	api := &stubScanner{outcome: checkInOutcome()}
	bridge, lc := newBridge(api, nil, 0)
	defer lc.Close()
	app := newTestApp(bridge)

	if err := lc.CheckIn(session.Session{ID: "sess-1"}); err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
	resp := postScan(t, app, scanRequest{Payload: Payload{UserID: "driver-1", QRCode: "qr-abc"}})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate check-in status = %d", resp.StatusCode)
	}
}
