// Package resilience provides the shared outbound HTTP client for upstream
// providers: per-call timeout, a single backoff retry on transient failure,
// and a circuit breaker per provider.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned when the provider's circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for a provider client.
type ClientConfig struct {
	// Name identifies the provider for circuit breaker naming and health
	// reporting.
	Name string

	// Timeout bounds each individual HTTP call. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the retry budget after the first attempt. Default: 1,
	// so a transient failure costs at most one extra round trip before the
	// provider is reported unavailable.
	MaxRetries uint64

	// InitialInterval is the first retry backoff delay. Default: 200ms.
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay. Default: 2s.
	MaxInterval time.Duration

	// BreakerTimeout is how long the circuit stays open before probing
	// half-open. Default: 60s.
	BreakerTimeout time.Duration
}

// DefaultClientConfig returns the defaults used by all provider clients.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      1,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		BreakerTimeout:  60 * time.Second,
	}
}

func (cfg *ClientConfig) applyDefaults() {
	def := DefaultClientConfig(cfg.Name)
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}
}

// Client is a resilient HTTP client for one upstream provider.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

// NewClient creates a provider client with retry and circuit breaking.
func NewClient(cfg ClientConfig) *Client {
	cfg.applyDefaults()

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{ //nolint:bodyclose // type param, not a response
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: readyToTrip,
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		config:     cfg,
	}
}

// readyToTrip opens the circuit at a 50%+ failure rate over at least five
// requests.
func readyToTrip(counts gobreaker.Counts) bool {
	failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= 5 && failureRatio >= 0.5
}

// Do executes the request through the circuit breaker, retrying transient
// failures (network errors, 5xx) within the configured budget. 4xx
// responses are returned as-is without retrying. When the retries are
// exhausted on a 5xx, the last response is returned so callers can report
// the upstream status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req.Context(), req)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				// 5xx counts as failure so the breaker can trip.
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}
	return lastResp, nil
}

// ServerError represents an HTTP 5xx upstream response.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// State returns the current circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the current circuit breaker counts.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

// Name returns the provider name this client serves.
func (c *Client) Name() string {
	return c.config.Name
}
