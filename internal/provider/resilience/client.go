package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Resilience errors.
var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies the provider in the registry and in logs.
	Name string

	// Timeout bounds a single attempt. Default: 5 seconds
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first one. Zero disables
	// retries.
	MaxRetries uint64

	// InitialInterval is the first backoff delay. Default: 200ms
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay. Default: 1 second
	MaxInterval time.Duration

	// Breaker configures the circuit breaker. Nil means DefaultBreakerConfig.
	Breaker *BreakerConfig

	// Registry, when set, receives the client and the result of every call.
	Registry *Registry

	Logger zerolog.Logger
}

// DefaultClientConfig returns the configuration used by the feed clients.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         5 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     time.Second,
		Breaker:         &breaker,
		Logger:          zerolog.Nop(),
	}
}

// Client is an HTTP client that retries transient failures with exponential
// backoff behind a circuit breaker.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
	logger     zerolog.Logger
}

// NewClient creates a resilient client and registers it when a registry is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = time.Second
	}

	breakerCfg := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	c := &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    NewBreaker[*http.Response](breakerCfg), //nolint:bodyclose // type parameter
		config:     cfg,
		logger:     cfg.Logger.With().Str("provider", cfg.Name).Logger(),
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Do executes req. Network errors and 5xx responses are retried; other
// responses are returned as is. When retries run out on a 5xx, the last
// response is returned without an error so callers can inspect it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.do(req.Context(), req)

	switch {
	case err != nil:
		c.record(err)
	case resp.StatusCode >= http.StatusInternalServerError:
		c.record(&ServerError{StatusCode: resp.StatusCode})
	default:
		c.record(nil)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var last *http.Response
	keep := func(resp *http.Response) {
		if last != nil && last != resp {
			drain(last)
		}
		last = resp
	}

	attempt := 0
	operation := func() error {
		attempt++
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		if resp != nil {
			keep(resp)
		}
		if err != nil {
			c.logger.Debug().Err(err).Int("attempt", attempt).Msg("feed request failed")
		}
		return err
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		if last != nil && ctx.Err() == nil {
			return last, nil
		}
		if last != nil {
			drain(last)
		}
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return last, nil
}

func (c *Client) record(err error) {
	if c.config.Registry == nil {
		return
	}
	if err != nil {
		c.config.Registry.RecordFailure(c.name, err)
		return
	}
	c.config.Registry.RecordSuccess(c.name)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// ServerError is an HTTP 5xx response.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// CircuitBreakerState returns the current breaker state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the current breaker counts.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}
