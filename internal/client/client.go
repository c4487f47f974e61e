// Package client talks to the BudgetBox sync server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
)

const ReasonServerNewer = "server-newer"

// SyncResponse is the body of a 200 answer to POST /budget/sync.
type SyncResponse struct {
	Success    bool           `json:"success"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     string         `json:"status,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	ServerCopy *budget.Budget `json:"serverCopy,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Sync sends the whole budget and returns the server's verdict.
func (c *Client) Sync(ctx context.Context, b budget.Budget) (*SyncResponse, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding budget: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/budget/sync", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding sync response: %w", err)
	}

	if !out.Success && (out.Reason != ReasonServerNewer || out.ServerCopy == nil) {
		return nil, fmt.Errorf("unexpected sync response: success=false reason=%q", out.Reason)
	}

	return &out, nil
}

// Latest fetches the server copy, or budget.ErrNotFound when the key was never synced.
func (c *Client) Latest(ctx context.Context, userID, month string) (*budget.Budget, error) {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("month", month)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/budget/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, budget.ErrNotFound
	default:
		return nil, statusError(resp)
	}

	var out struct {
		Budget *budget.Budget `json:"budget"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding latest response: %w", err)
	}

	if out.Budget == nil {
		return nil, errors.New("latest response has no budget")
	}

	return out.Budget, nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, body.Error)
	}

	return fmt.Errorf("unexpected status code %d", resp.StatusCode)
}
