// Package slotapi is the HTTP client for the scheduling backend that owns
// appointment slots. The backend is the sole arbiter of reservation races:
// a reserve call is a single conditional write and at most one requester
// per slot ever receives success.
package slotapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/arvanehlab/ravan_backend/config"
	"github.com/arvanehlab/ravan_backend/internal/assessment"
	"github.com/arvanehlab/ravan_backend/internal/provider"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg config.ProviderEndpointConfig) *Client {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListOpenSlots returns the open slots in [from, to). Read-only and
// lock-free; the listing may be stale by the time the caller acts on it.
func (c *Client) ListOpenSlots(ctx context.Context, from, to time.Time) ([]assessment.Slot, error) {
	const op = "list open slots"

	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/slots?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	provider.Authorize(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &provider.ServerError{Op: op, Status: res.StatusCode, Message: readMessage(res)}
	}

	var body struct {
		Slots []assessment.Slot `json:"slots"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return body.Slots, nil
}

// Reserve requests the Open -> Reserved transition for one slot. Returns
// nil when this requester won, provider.ErrConflict when another requester
// already holds the slot, and NetworkError/ServerError for failures that
// leave the slot worth retrying.
func (c *Client) Reserve(ctx context.Context, slotID string) error {
	const op = "reserve slot"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/slots/"+slotID+"/book", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	provider.Authorize(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &provider.NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode <= 299:
		return nil
	case res.StatusCode == http.StatusConflict:
		return provider.ErrConflict
	default:
		return &provider.ServerError{Op: op, Status: res.StatusCode, Message: readMessage(res)}
	}
}

func readMessage(res *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}
