package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-raffle/internal/models"
)

// ErrNetwork marks a request that never reached the raffle service.
// There is no automatic retry; the session surfaces it and waits for a
// fresh user action.
var ErrNetwork = errors.New("raffle service unreachable")

// Client implements EntryAPI over the raffle service's HTTP surface.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

func (c *Client) Status(ctx context.Context, userID int64) (int, error) {
	url := fmt.Sprintf("%s/api/raffle-status?userId=%d", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("raffle status failed: %s", resp.Status)
	}

	var body models.RaffleStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("raffle status: bad response: %w", err)
	}
	return body.Tickets, nil
}

func (c *Client) Enter(ctx context.Context, userID int64) (int, error) {
	payload, err := json.Marshal(map[string]int64{"userId": userID})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/raffle-entry", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("raffle entry failed: %s", resp.Status)
	}

	var body models.RaffleEntryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("raffle entry: bad response: %w", err)
	}
	if !body.Success {
		return 0, errors.New("raffle entry was not accepted")
	}
	return body.Tickets, nil
}
