package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"driver-parkmate/internal/shared/geo"
)

// ErrBackendUnavailable wraps transport-level failures reaching the parking
// backend. Callers treat it as retryable and keep showing last-known data.
var ErrBackendUnavailable = errors.New("parking backend unavailable")

// APIError is a non-2xx response with the backend's message attached.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the central parking backend. It attaches the caller's
// bearer credential as-is; issuing and refreshing tokens is not its job.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Lots fetches the current lot snapshots, optionally scoped to a position.
// The caller re-ranks client-side regardless of any server-side ordering.
func (c *Client) Lots(ctx context.Context, pos *geo.Position) ([]Lot, error) {
	url := c.baseURL + "/parking/lots"
	if pos != nil {
		url += "?lat=" + strconv.FormatFloat(pos.Lat, 'f', -1, 64) +
			"&lon=" + strconv.FormatFloat(pos.Lon, 'f', -1, 64)
	}

	var lots []Lot
	if err := c.do(ctx, http.MethodGet, url, "", nil, &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// ActiveSession returns the caller's open session, or nil when none exists.
func (c *Client) ActiveSession(ctx context.Context, bearer string) (*Session, error) {
	var session *Session
	err := c.do(ctx, http.MethodGet, c.baseURL+"/parking/active-session", bearer, nil, &session)
	if err != nil {
		// The backend answers "no open session" as an unsuccessful envelope,
		// not a transport failure.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			return nil, nil
		}
		return nil, err
	}
	if session != nil && session.ID == "" {
		return nil, nil
	}
	return session, nil
}

// ProcessPass submits a scanned pass for the backend's check-in/check-out
// decision. Unlike the other endpoints, guard-process answers with the
// outcome at the top level rather than inside a data envelope.
func (c *Client) ProcessPass(ctx context.Context, bearer string, req ProcessRequest) (*ScanOutcome, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parking/guard-process", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	var outcome ScanOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return nil, fmt.Errorf("%w: malformed response", ErrBackendUnavailable)
	}
	if outcome.Type != OutcomeCheckIn && outcome.Type != OutcomeCheckOut {
		return nil, &APIError{Status: resp.StatusCode, Message: outcome.Message}
	}
	return &outcome, nil
}

func (c *Client) do(ctx context.Context, method, url, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("%w: malformed response", ErrBackendUnavailable)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed response data", ErrBackendUnavailable)
		}
	}
	return nil
}
