// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/naka-gawa/repo-cards/internal/domain"
)

const (
	acceptHeader       = "application/vnd.github+json"
	cacheControlHeader = "no-cache"
)

// Fetcher defines the behavior of a gateway for fetching repository summaries from GitHub.
type Fetcher interface {
	FetchRepo(ctx context.Context, id domain.RepoIdentifier) (*domain.RepoSummary, error)
}

// StatusError is returned when GitHub answers a repository request with a non-success status.
// Its message is "<owner/name> <status>", which is what the error view displays.
type StatusError struct {
	Identifier domain.RepoIdentifier
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d", e.Identifier, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Options configures the HTTP stack shared by both gateways.
type Options struct {
	// Token is optional for REST and required for GraphQL.
	Token string
	// BaseURL overrides the API endpoint (GitHub Enterprise or tests).
	BaseURL string
	// RequestsPerMinute paces outbound requests. Zero disables pacing.
	RequestsPerMinute int
	// Timeout bounds a single HTTP request. Zero means no timeout.
	Timeout time.Duration
	// SecondaryLimitSleep is the longest single sleep allowed when GitHub
	// reports a secondary rate limit. Longer waits fail the request instead.
	SecondaryLimitSleep time.Duration
}

// headerTransport forces the media type and disables intermediary caching on every request.
type headerTransport struct {
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Accept", acceptHeader)
	r.Header.Set("Cache-Control", cacheControlHeader)
	return t.base.RoundTrip(r)
}

// newHTTPClient builds header -> oauth2 (optional) -> secondary rate limit waiter -> default transport.
func newHTTPClient(opts Options) (*http.Client, error) {
	sleepLimit := opts.SecondaryLimitSleep
	if sleepLimit <= 0 {
		sleepLimit = 5 * time.Second
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(sleepLimit, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var base http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		base = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}

	return &http.Client{
		Transport: &headerTransport{base: base},
		Timeout:   opts.Timeout,
	}, nil
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
