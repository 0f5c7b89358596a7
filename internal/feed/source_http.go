package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mkovalev/newsstand/internal/news"
)

// HTTPSource fetches pages from a running news proxy and normalizes them.
// Proxy error bodies are mapped back onto the news sentinel errors so the
// orchestrator's failure handling works the same on both sides of the wire.
type HTTPSource struct {
	http    *http.Client
	baseURL string
	clock   news.Clock
}

// NewHTTPSource constructs a source for the proxy at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration, clock news.Clock) *HTTPSource {
	r := retryablehttp.NewClient()
	r.RetryMax = 1
	r.HTTPClient.Timeout = timeout
	r.Logger = nil
	r.CheckRetry = checkRetry
	return &HTTPSource{
		http:    r.StandardClient(),
		baseURL: baseURL,
		clock:   clock,
	}
}

// FetchPage requests one page and returns it normalized.
func (s *HTTPSource) FetchPage(ctx context.Context, query string, page int) (Page, error) {
	params := url.Values{
		"query": {query},
		"page":  {fmt.Sprint(page)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/news?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("build proxy request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", news.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Page{}, fmt.Errorf("%w: read body: %v", news.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Page{}, proxyError(resp.StatusCode, body)
	}

	var payload news.Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return Page{}, fmt.Errorf("%w: decode: %v", news.ErrMalformed, err)
	}
	if payload.Articles == nil {
		return Page{}, fmt.Errorf("%w: missing articles array", news.ErrMalformed)
	}

	return Page{
		Articles:     news.NormalizePage(payload.Articles, page, s.clock.Now()),
		TotalResults: payload.TotalResults,
	}, nil
}

func proxyError(status int, body []byte) error {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &e)
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", news.ErrRateLimited, e.Message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", news.ErrUnauthorized, e.Message)
	case http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", news.ErrMalformed, e.Message)
	default:
		return fmt.Errorf("%w: http %d %s", news.ErrUnavailable, status, e.Message)
	}
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
