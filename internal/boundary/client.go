package boundary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brinemap/brinemap/internal/provider/resilience"
)

// ProviderName identifies the boundary feed in the provider registry.
const ProviderName = "boundary-feed"

// maxBodyBytes bounds the size of a boundary document.
const maxBodyBytes = 32 << 20

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the boundary feed client.
type ClientConfig struct {
	// URL of the GeoJSON feature collection.
	URL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for a single request (default: 5s).
	Timeout time.Duration

	// Registry receives the health of the default client.
	Registry *resilience.Registry
}

// Client fetches region boundaries.
type Client struct {
	url        string
	httpClient HTTPDoer
}

// NewClient creates a boundary feed client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		url:        cfg.URL,
		httpClient: httpClient,
	}
}

// FetchBoundaries downloads and classifies the region boundaries.
func (c *Client) FetchBoundaries(ctx context.Context) (*Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch boundaries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from boundary feed", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read boundary response: %w", err)
	}

	return Parse(body)
}
