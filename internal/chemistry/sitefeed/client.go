// Package sitefeed provides a client for the lake monitoring site feed.
package sitefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brinemap/brinemap/internal/chemistry"
	"github.com/brinemap/brinemap/internal/provider/resilience"
)

// ProviderName identifies the site feed in the provider registry.
const ProviderName = "site-feed"

// DefaultMaxBodyBytes bounds the size of a site document.
const DefaultMaxBodyBytes = 32 << 20

// ClientConfig holds configuration for the site feed client.
type ClientConfig struct {
	// URL of the site+reading document.
	URL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for a single request (default: 5s).
	Timeout time.Duration

	// MaxBodyBytes bounds the response size (default: DefaultMaxBodyBytes).
	MaxBodyBytes int64

	// Registry receives the health of the default client.
	Registry *resilience.Registry
}

// ErrBodyTooLarge is returned when the feed document exceeds the size limit.
var ErrBodyTooLarge = errors.New("site feed response too large")

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches raw monitoring sites.
type Client struct {
	url          string
	httpClient   HTTPDoer
	maxBodyBytes int64
}

// NewClient creates a site feed client.
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

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Client{
		url:          cfg.URL,
		httpClient:   httpClient,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// API response types. Site identifiers have moved between fields across
// feed versions.

type siteData struct {
	SiteID   string                 `json:"siteId"`
	SiteCode string                 `json:"site_code"`
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Geometry json.RawMessage        `json:"geometry"`
	Easting  any                    `json:"utmEasting"`
	Northing any                    `json:"utmNorthing"`
	Readings []chemistry.RawReading `json:"readings"`
}

type sitesEnvelope struct {
	Sites []siteData `json:"sites"`
}

// FetchSites downloads every site with its readings.
func (c *Client) FetchSites(ctx context.Context) ([]chemistry.RawSite, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sites: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from site feed", resp.StatusCode)
	}

	// One extra byte tells an oversized document from one of exactly the limit.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read site response: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodyBytes)
	}

	data, err := decodeSites(body)
	if err != nil {
		return nil, err
	}

	sites := make([]chemistry.RawSite, 0, len(data))
	for i := range data {
		if site, ok := toRawSite(&data[i]); ok {
			sites = append(sites, site)
		}
	}
	return sites, nil
}

// decodeSites accepts either a bare array or an object with a "sites" array.
func decodeSites(body []byte) ([]siteData, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env sitesEnvelope
		if err := newDecoder(trimmed).Decode(&env); err != nil {
			return nil, fmt.Errorf("decode sites response: %w", err)
		}
		return env.Sites, nil
	}

	var sites []siteData
	if err := newDecoder(trimmed).Decode(&sites); err != nil {
		return nil, fmt.Errorf("decode sites response: %w", err)
	}
	return sites, nil
}

func newDecoder(b []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec
}

// toRawSite converts API site data to the chemistry input shape.
func toRawSite(s *siteData) (chemistry.RawSite, bool) {
	id := s.SiteID
	if id == "" {
		id = s.SiteCode
	}
	if id == "" {
		id = s.ID
	}
	if id == "" {
		return chemistry.RawSite{}, false // Skip anonymous sites
	}

	return chemistry.RawSite{
		ID:       id,
		Name:     s.Name,
		Geometry: s.Geometry,
		Easting:  s.Easting,
		Northing: s.Northing,
		Readings: s.Readings,
	}, true
}
