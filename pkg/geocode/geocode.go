// Package geocode talks to the address resolution collaborator: a REST
// service turning free-text addresses into a normalized locality and a
// static map image URL.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/pkg/config"
)

// Result is a resolved address.
type Result struct {
	Fullcity string `json:"fullcity"`
}

// Geocoder resolves addresses. Enrichment callers treat failures as
// "field absent", never as operation failures.
type Geocoder interface {
	ResolveAddress(ctx context.Context, address string) (*Result, error)
	StaticMapURL(address string) string
}

// Client is the HTTP geocoder.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a geocoder client. An empty base URL yields a client
// whose resolutions always fail, which callers degrade gracefully from.
func NewClient(cfg config.GeocodeConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// ResolveAddress resolves the address to a normalized locality.
func (c *Client) ResolveAddress(ctx context.Context, address string) (*Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("geocoder not configured")
	}
	endpoint := fmt.Sprintf("%s/resolve?address=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: unexpected status %d", address, resp.StatusCode)
	}
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	return &result, nil
}

// StaticMapURL returns the collaborator's static map image URL for the
// address. Empty when the address or the collaborator is missing.
func (c *Client) StaticMapURL(address string) string {
	if c.baseURL == "" || address == "" {
		return ""
	}
	return fmt.Sprintf("%s/staticmap?address=%s", c.baseURL, url.QueryEscape(address))
}
