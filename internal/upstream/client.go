// Package upstream talks to the third-party novel API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// maxPayload bounds how much of a search response is read.
const maxPayload = 4 << 20

var ErrUnavailable = errors.New("novel api unavailable")

// Config configures the novel API client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RPS and Burst pace outbound calls to stay within the API key quota.
	// RPS <= 0 disables pacing.
	RPS   float64
	Burst int
	// BreakerFailures is the number of consecutive failures that opens the circuit.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client calls the novel API's search endpoint and builds download URLs.
type Client struct {
	base    *url.URL
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
}

// NewClient creates a Client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid novel api url %q", cfg.BaseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	failures := cfg.BreakerFailures
	st := gobreaker.Settings{
		Name:        "novel-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller hanging up says nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		base:    base,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		cb:      gobreaker.NewCircuitBreaker(st),
	}, nil
}

// Search returns the raw JSON search payload for query. Transport errors,
// non-2xx answers, invalid JSON, timeouts and an open circuit all wrap
// ErrUnavailable.
func (c *Client) Search(ctx context.Context, query string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.get(ctx, c.buildURL(url.Values{"q": {query}}))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return res.(json.RawMessage), nil
}

// DownloadURL returns the novel API download link for the n-th result of query.
func (c *Client) DownloadURL(query, n string) string {
	return c.buildURL(url.Values{"q": {query}, "n": {n}})
}

func (c *Client) buildURL(params url.Values) string {
	u := *c.base
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayload))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(body) > maxPayload {
		return nil, errors.New("response too large")
	}
	if !json.Valid(body) {
		return nil, errors.New("response is not valid JSON")
	}

	return json.RawMessage(body), nil
}
