package tracking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"driver-parkmate/internal/shared/geo"
)

type recordingSink struct {
	mu        sync.Mutex
	positions []geo.Position
}

func (r *recordingSink) SetPosition(_ uint64, pos geo.Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, pos)
	return true
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

func newTestApp(sink PositionSink) (*fiber.App, *Service) {
	svc := NewService(NewPushProvider(), WatchOptions{HighAccuracy: true}, sink, nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), svc, passThrough)
	return app, svc
}

func TestWatchLifecycleHandlers(t *testing.T) {
	sink := &recordingSink{}
	app, _ := newTestApp(sink)

	req := httptest.NewRequest(http.MethodPost, "/tracking/watch", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("start watch status: %v %d", err, resp.StatusCode)
	}
	var watch Watch
	if err := json.NewDecoder(resp.Body).Decode(&watch); err != nil || watch.ID == "" {
		t.Fatalf("expected watch handle: %v", err)
	}

	body, _ := json.Marshal(fixRequest{Lat: 27.7172, Lon: 85.3240, AccuracyM: 8, RecordedAt: time.Now()})
	req = httptest.NewRequest(http.MethodPost, "/tracking/fixes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("push fix status: %v %d", err, resp.StatusCode)
	}

	sink.mu.Lock()
	got := len(sink.positions)
	sink.mu.Unlock()
	if got != 1 {
		t.Fatalf("expected position forwarded to sink")
	}

	req = httptest.NewRequest(http.MethodGet, "/tracking/position", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("position status: %v %d", err, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodDelete, "/tracking/watch", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("stop watch status: %v %d", err, resp.StatusCode)
	}
}

func TestFixWithoutWatchConflicts(t *testing.T) {
	app, _ := newTestApp(nil)

	body, _ := json.Marshal(fixRequest{Lat: 27.7, Lon: 85.3})
	req := httptest.NewRequest(http.MethodPost, "/tracking/fixes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", resp.StatusCode)
	}
}

func TestFixValidation(t *testing.T) {
	app, _ := newTestApp(nil)

	req := httptest.NewRequest(http.MethodPost, "/tracking/fixes", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for malformed body")
	}

	body, _ := json.Marshal(fixRequest{Lat: 120, Lon: 85.3})
	req = httptest.NewRequest(http.MethodPost, "/tracking/fixes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for out-of-range lat")
	}
}

func TestPositionBeforeAnyFix(t *testing.T) {
	app, _ := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/tracking/position", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found before first fix")
	}
}

func TestErrorReportHandler(t *testing.T) {
	app, _ := newTestApp(nil)

	req := httptest.NewRequest(http.MethodPost, "/tracking/watch", nil)
	if resp, err := app.Test(req); err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("start watch failed")
	}

	body, _ := json.Marshal(failureRequest{Reason: "permission denied"})
	req = httptest.NewRequest(http.MethodPost, "/tracking/errors", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("report failure status: %v %d", err, resp.StatusCode)
	}

	body, _ = json.Marshal(failureRequest{})
	req = httptest.NewRequest(http.MethodPost, "/tracking/errors", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for empty reason")
	}
}
