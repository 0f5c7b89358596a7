// Package upstream implements the client for the third-party news provider.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mkovalev/newsstand/internal/news"
)

// maxBodyBytes caps how much of an upstream payload is read.
const maxBodyBytes = 4 << 20

// Config holds the provider endpoint and request shaping knobs.
type Config struct {
	APIKey     string
	BaseURL    string
	Language   string
	SortBy     string
	PageSize   int
	Timeout    time.Duration
	MaxRetries int
	RPS        float64
	Burst      int
}

// Client fetches paginated search results from the news provider. All
// failures are classified into the news package sentinel errors before they
// leave this package.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New creates a Client with retrying transport and a request throttle.
func New(cfg Config, logger *zap.Logger) *Client {
	r := retryablehttp.NewClient()
	r.RetryMax = cfg.MaxRetries
	r.HTTPClient.Timeout = cfg.Timeout
	r.Logger = nil
	// The default policy retries 429; the cache layer needs to see those to
	// fall back to stale data, so retry transport errors and 5xx only.
	r.CheckRetry = checkRetry

	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		http:    r.StandardClient(),
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
		logger:  logger,
	}
}

// Fetch requests one page of search results for query. The returned Response
// is validated: a nil error means status "ok" with a present articles array.
func (c *Client) Fetch(ctx context.Context, query string, page int) (*news.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, page), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("query", query), zap.Int("page", page), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", news.ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("close upstream body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", news.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: http 429", news.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: http 401", news.ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: http %d", news.ErrUnavailable, resp.StatusCode)
	}

	var payload news.Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", news.ErrMalformed, err)
	}
	// The provider wraps some errors in a 200 with status "error".
	if payload.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q (%s)", news.ErrMalformed, payload.Status, payload.Message)
	}
	if payload.Articles == nil {
		return nil, fmt.Errorf("%w: missing articles array", news.ErrMalformed)
	}
	return &payload, nil
}

func (c *Client) searchURL(query string, page int) string {
	params := url.Values{
		"q":        {query},
		"language": {c.cfg.Language},
		"sortBy":   {c.cfg.SortBy},
		"pageSize": {fmt.Sprint(c.cfg.PageSize)},
		"page":     {fmt.Sprint(page)},
		"apiKey":   {c.cfg.APIKey},
	}
	return c.cfg.BaseURL + "/everything?" + params.Encode()
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented {
		return true, nil
	}
	return false, nil
}
