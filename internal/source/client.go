package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/storage"
)

// Client reads dashboards from a running `pongstats serve`.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// get performs a GET against the API and JSON-decodes the response body into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	default:
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchDashboard returns the normalized dashboard payload for a tournament.
func (c *Client) FetchDashboard(ctx context.Context, tournamentID int64) (*model.Dashboard, error) {
	var d model.Dashboard
	if err := c.get(ctx, fmt.Sprintf("/tournaments/%d/dashboard", tournamentID), &d); err != nil {
		return nil, err
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListTournaments returns the tournaments known to the server.
func (c *Client) ListTournaments(ctx context.Context) ([]storage.TournamentSummary, error) {
	var out []storage.TournamentSummary
	if err := c.get(ctx, "/tournaments", &out); err != nil {
		return nil, err
	}
	return out, nil
}
