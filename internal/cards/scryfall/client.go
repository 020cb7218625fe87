// Package scryfall is a small rate-limited client for the Scryfall card API.
// Only the lookups needed to resolve mana costs by card name are exposed.
package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Scryfall API.
	DefaultBaseURL = "https://api.scryfall.com"
	// DefaultUserAgent identifies this tool to Scryfall.
	DefaultUserAgent = "Doomsday-Companion/1.0"
	// DefaultRateLimit is Scryfall's published budget of 10 requests per second.
	DefaultRateLimit = 10.0

	// MaxBatchSize is the Scryfall limit for /cards/collection.
	MaxBatchSize = 75

	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL   string
	UserAgent string
	// RateLimit is requests per second.
	RateLimit  float64
	HTTPClient *http.Client
	// Backoff is the first retry delay; it doubles up to 16s.
	Backoff time.Duration
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	backoff     time.Duration
}

// NewClient creates a Scryfall client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if opts.Backoff <= 0 {
		opts.Backoff = initialBackoff
	}
	return &Client{
		baseURL:     opts.BaseURL,
		httpClient:  opts.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		userAgent:   opts.UserAgent,
		backoff:     opts.Backoff,
	}
}

// GetCardByName retrieves a card by its exact English name.
func (c *Client) GetCardByName(ctx context.Context, name string) (*Card, error) {
	u := c.baseURL + "/cards/named?" + url.Values{"exact": {name}}.Encode()

	var card Card
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &card); err != nil {
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}
	return &card, nil
}

// GetCardsByNames fetches cards in batches through /cards/collection.
// Names Scryfall does not know are returned in notFound.
func (c *Client) GetCardsByNames(ctx context.Context, names []string) (cards []Card, notFound []string, err error) {
	for i := 0; i < len(names); i += MaxBatchSize {
		end := min(i+MaxBatchSize, len(names))

		req := collectionRequest{Identifiers: make([]cardIdentifier, 0, end-i)}
		for _, name := range names[i:end] {
			req.Identifiers = append(req.Identifiers, cardIdentifier{Name: name})
		}
		body, err := json.Marshal(req)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		var resp collectionResponse
		if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/cards/collection", body, &resp); err != nil {
			return nil, nil, fmt.Errorf("failed to fetch batch %d-%d: %w", i, end, err)
		}
		cards = append(cards, resp.Data...)
		for _, id := range resp.NotFound {
			notFound = append(notFound, id.Name)
		}
	}
	return cards, notFound, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, u string, body []byte, result any) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if ctx.Err() != nil {
				return lastErr
			}
			if attempt < maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return err
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		retry, err := c.handleResponse(resp, u, result)
		if !retry {
			return err
		}
		lastErr = err

		if attempt < maxRetries {
			wait := backoff
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, err := strconv.Atoi(s); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse decodes resp into result. retry is true for statuses worth
// another attempt.
func (c *Client) handleResponse(resp *http.Response, u string, result any) (retry bool, err error) {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return true, errors.New("rate limited (HTTP 429)")

	case resp.StatusCode == http.StatusNotFound:
		return false, &NotFoundError{URL: u}

	case resp.StatusCode >= 500:
		return true, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)

	default:
		data, _ := io.ReadAll(resp.Body)
		var apiErr APIError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Details != "" {
			return false, &apiErr
		}
		return false, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(data))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
