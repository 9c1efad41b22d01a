package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://hexdb.io/api/v1"

// ErrNotFound means the registry has no registration for the hex id. A miss
// is expected data quality, not a failure.
var ErrNotFound = errors.New("registry: registration not found")

// Lookup resolves an aircraft registration (tail number) from the
// transponder hex id the aircraft broadcasts.
type Lookup interface {
	Registration(ctx context.Context, hex string) (string, error)
}

// Client queries the hexdb.io aircraft registry.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) Registration(ctx context.Context, hex string) (string, error) {
	hex = strings.ToLower(strings.TrimSpace(hex))
	if len(hex) != 6 {
		return "", fmt.Errorf("registry: invalid hex id %q", hex)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/aircraft/"+hex, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Registration string `json:"Registration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("registry: decode response: %w", err)
	}

	if payload.Registration == "" {
		return "", ErrNotFound
	}
	return payload.Registration, nil
}
