// Package pokeapi is a small PokeAPI client with retries, a polite
// inter-request delay, and a local response cache so repeat runs stay off
// the network entirely.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/printdex/printdex/internal/datacache"
)

// ErrNotFound means the upstream has no entry for the requested entity.
var ErrNotFound = errors.New("no such entity")

// RequestError reports a request that kept failing after the retry budget.
type RequestError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to PokeAPI.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	Backoff    time.Duration // base retry delay, doubled per attempt
	RateDelay  time.Duration // minimum gap between upstream calls
	Cache      *datacache.Store

	mu       sync.Mutex
	nextCall time.Time
}

// NewClient builds a client with the usual timeouts.
func NewClient(baseURL string, cache *datacache.Store, timeout time.Duration, retries int, rateDelay time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Retries:    retries,
		Backoff:    500 * time.Millisecond,
		RateDelay:  rateDelay,
		Cache:      cache,
	}
}

// Pokemon fetches /pokemon/{id}: base name and type slots.
func (c *Client) Pokemon(ctx context.Context, id int) (*Pokemon, error) {
	var p Pokemon
	key := fmt.Sprintf("pokemon-%d", id)
	url := fmt.Sprintf("%s/pokemon/%d", c.BaseURL, id)
	if err := c.getJSON(ctx, key, url, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Species fetches /pokemon-species/{id}: localized name entries.
func (c *Client) Species(ctx context.Context, id int) (*Species, error) {
	var s Species
	key := fmt.Sprintf("species-%d", id)
	url := fmt.Sprintf("%s/pokemon-species/%d", c.BaseURL, id)
	if err := c.getJSON(ctx, key, url, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// getJSON resolves a payload cache-first, fetching and caching on a miss.
func (c *Client) getJSON(ctx context.Context, key, url string, out any) error {
	if c.Cache != nil {
		if data, ok := c.Cache.Get(key); ok {
			if err := json.Unmarshal(data, out); err == nil {
				slog.Debug("Data cache hit", "key", key)
				return nil
			}
			slog.Warn("Discarding undecodable cache entry", "key", key)
		}
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	if c.Cache != nil {
		if err := c.Cache.Put(key, data); err != nil {
			slog.Warn("Failed to cache response", "key", key, "error", err)
		}
	}
	return nil
}

// fetch GETs url with the retry budget. Transport errors and 5xx statuses
// are retried with exponential backoff; 404 maps to ErrNotFound and is
// never retried.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.Retries; attempt++ {
		if attempt > 1 {
			delay := c.retryDelay(attempt - 1)
			slog.Debug("Retrying request", "url", url, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		data, retryable, err := c.attempt(ctx, url)
		if err == nil {
			return data, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, &RequestError{URL: url, Attempts: c.Retries, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, url string) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}
	return data, false, nil
}

// retryDelay doubles the base backoff per prior attempt.
func (c *Client) retryDelay(prior int) time.Duration {
	base := c.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return base << (prior - 1)
}

// throttle reserves the next upstream call slot and waits for it. The lock
// covers only the reservation, so a canceled waiter never holds up others.
func (c *Client) throttle(ctx context.Context) error {
	if c.RateDelay <= 0 {
		return nil
	}
	c.mu.Lock()
	now := time.Now()
	if c.nextCall.Before(now) {
		c.nextCall = now
	}
	wait := c.nextCall.Sub(now)
	c.nextCall = c.nextCall.Add(c.RateDelay)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
