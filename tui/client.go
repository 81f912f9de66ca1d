package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"morningbrief/api"
	"morningbrief/types"
)

// Client is a thin HTTP client for a running briefing service
type Client struct {
	baseURL  string
	client   *http.Client
	interval time.Duration
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
		interval: 500 * time.Millisecond,
	}
}

// Status fetches the service status
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var status api.StatusResponse
	if err := c.getJSON(ctx, "/api/briefing/status", &status); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &status, nil
}

// Start asks the service to begin a run
func (c *Client) Start(ctx context.Context, dryRun bool) (string, error) {
	body, _ := json.Marshal(map[string]bool{"dry_run": dryRun})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/briefing/run", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return "", types.ErrRunInProgress
	}
	if resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}

	var out struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.RunID, nil
}

// Latest fetches the last briefing
func (c *Client) Latest(ctx context.Context) (*types.Briefing, error) {
	var b types.Briefing
	if err := c.getJSON(ctx, "/api/briefing/latest", &b); err != nil {
		return nil, fmt.Errorf("failed to get latest briefing: %w", err)
	}
	return &b, nil
}

// Run starts a remote run, polls until it finishes and returns the briefing.
func (c *Client) Run(ctx context.Context) (*types.Briefing, error) {
	runID, err := c.Start(ctx, false)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		status, err := c.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status.RunID == runID {
			switch status.State {
			case api.StateComplete:
				return c.Latest(ctx)
			case api.StateError:
				return nil, fmt.Errorf("run %s failed: %s", runID, status.Error)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
