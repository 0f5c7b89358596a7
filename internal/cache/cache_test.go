package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/news"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fakeSource struct {
	calls     int
	responses map[string]*news.Response
	err       error
}

func (s *fakeSource) Fetch(_ context.Context, query string, page int) (*news.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	resp, ok := s.responses[key(query, page)]
	if !ok {
		return nil, fmt.Errorf("%w: no fixture", news.ErrUnavailable)
	}
	return resp, nil
}

func key(query string, page int) string {
	return fmt.Sprintf("%s/%d", query, page)
}

func okResponse(total int) *news.Response {
	return &news.Response{
		Status:       "ok",
		TotalResults: total,
		Articles:     []news.RawArticle{{Title: "t", URL: "https://example.com"}},
	}
}

func TestCache_FreshHitSkipsUpstream(t *testing.T) {
	t.Parallel()

	src := &fakeSource{responses: map[string]*news.Response{key("golang", 1): okResponse(7)}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := New(src, clock, 5*time.Minute, zap.NewNop())

	first, status, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Equal(t, StatusMiss, status)

	clock.advance(time.Minute)
	second, status, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Equal(t, StatusHit, status)
	require.Same(t, first, second)
	require.Equal(t, 1, src.calls)
}

func TestCache_QueryNormalization(t *testing.T) {
	t.Parallel()

	src := &fakeSource{responses: map[string]*news.Response{key("golang", 1): okResponse(7)}}
	c := New(src, &fakeClock{now: time.Unix(1000, 0)}, 5*time.Minute, zap.NewNop())

	_, _, err := c.Get(context.Background(), "  GoLang ", 1)
	require.NoError(t, err)

	_, status, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Equal(t, StatusHit, status)
	require.Equal(t, 1, src.calls)
}

func TestCache_ExpiredEntryRefetches(t *testing.T) {
	t.Parallel()

	src := &fakeSource{responses: map[string]*news.Response{key("golang", 1): okResponse(7)}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := New(src, clock, 5*time.Minute, zap.NewNop())

	_, _, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)

	clock.advance(5 * time.Minute)
	_, status, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Equal(t, StatusMiss, status)
	require.Equal(t, 2, src.calls)
}

func TestCache_DifferentKeyMisses(t *testing.T) {
	t.Parallel()

	src := &fakeSource{responses: map[string]*news.Response{
		key("golang", 1): okResponse(7),
		key("golang", 2): okResponse(7),
	}}
	c := New(src, &fakeClock{now: time.Unix(1000, 0)}, 5*time.Minute, zap.NewNop())

	_, _, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	_, status, err := c.Get(context.Background(), "golang", 2)
	require.NoError(t, err)
	require.Equal(t, StatusMiss, status)

	// The single slot now holds page 2; page 1 fetches again.
	_, status, err = c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Equal(t, StatusMiss, status)
	require.Equal(t, 3, src.calls)
}

func TestCache_RateLimitFallsBackToStale(t *testing.T) {
	t.Parallel()

	src := &fakeSource{responses: map[string]*news.Response{key("golang", 1): okResponse(7)}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := New(src, clock, 5*time.Minute, zap.NewNop())

	cached, _, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)

	// Well past the TTL and a different key entirely: the 429 fallback
	// ignores both.
	clock.advance(time.Hour)
	src.err = fmt.Errorf("%w: http 429", news.ErrRateLimited)

	got, status, err := c.Get(context.Background(), "rust", 4)
	require.NoError(t, err)
	require.Equal(t, StatusStale, status)
	require.Same(t, cached, got)
}

func TestCache_RateLimitWithoutEntryPropagates(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: fmt.Errorf("%w: http 429", news.ErrRateLimited)}
	c := New(src, &fakeClock{now: time.Unix(1000, 0)}, 5*time.Minute, zap.NewNop())

	_, _, err := c.Get(context.Background(), "golang", 1)
	require.ErrorIs(t, err, news.ErrRateLimited)
}

func TestCache_OtherErrorsDoNotTouchCache(t *testing.T) {
	t.Parallel()

	src := &fakeSource{responses: map[string]*news.Response{key("golang", 1): okResponse(7)}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := New(src, clock, 5*time.Minute, zap.NewNop())

	_, _, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)

	src.err = fmt.Errorf("%w: http 401", news.ErrUnauthorized)
	_, _, err = c.Get(context.Background(), "rust", 1)
	require.ErrorIs(t, err, news.ErrUnauthorized)
	require.False(t, errors.Is(err, news.ErrRateLimited))

	// The original entry survives and still serves a fresh hit.
	src.err = nil
	_, status, err := c.Get(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Equal(t, StatusHit, status)
}
