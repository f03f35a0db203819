package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const (
	userAgent   = "Mozilla/5.0 (compatible; disaster-rtd/1.0)"
	maxBodySize = 16 << 20
)

// Fetcher performs GET requests against one upstream behind a circuit
// breaker. It does not retry.
type Fetcher struct {
	name    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewFetcher creates a fetcher whose breaker opens after five consecutive
// failures and half-opens again after a minute.
func NewFetcher(name string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return NewFetcherWithClient(name, &http.Client{Timeout: timeout}, logger)
}

// NewFetcherWithClient is NewFetcher with a caller-supplied HTTP client.
func NewFetcherWithClient(name string, client *http.Client, logger *slog.Logger) *Fetcher {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream circuit state changed", "source", name, "from", from.String(), "to", to.String())
		},
	})
	return &Fetcher{name: name, client: client, breaker: cb}
}

// Get fetches rawURL with params appended to its query and returns the body.
// Non-2xx responses, transport errors and an open breaker are all reported
// as domain.ErrUpstreamUnavailable.
func (f *Fetcher) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s url: %w", f.name, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	body, err := f.breaker.Execute(func() ([]byte, error) {
		return f.do(ctx, u.String())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrUpstreamUnavailable, f.name, err)
		}
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", f.name, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s request: %w", domain.ErrUpstreamUnavailable, f.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned status %d: %s", domain.ErrUpstreamUnavailable, f.name, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s body: %w", domain.ErrUpstreamUnavailable, f.name, err)
	}
	return body, nil
}
