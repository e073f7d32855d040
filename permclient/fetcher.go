package permclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthorized is returned by a Fetcher when the server answers 401. The
// store treats it the same as any other fetch failure (fallback snapshot),
// but it is kept distinct for logging.
var ErrUnauthorized = errors.New("unauthorized")

// Fetcher retrieves the permission snapshot for the current session.
type Fetcher interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// HTTPFetcher consumes the server's snapshot endpoint.
type HTTPFetcher struct {
	BaseURL string
	// Token returns the current bearer token for the session.
	Token  func() string
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher against the given API base URL.
func NewHTTPFetcher(baseURL string, token func() string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Fetch performs GET /api/v1/me/permissions.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/api/v1/me/permissions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}
	if f.Token != nil {
		if token := f.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("snapshot fetch failed: status %d", resp.StatusCode)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}
