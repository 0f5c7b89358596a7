package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkovalev/newsstand/internal/news"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testHTTPSource(serverURL string) *HTTPSource {
	return NewHTTPSource(serverURL, 2*time.Second, fixedClock{t: time.Unix(1700000000, 0).UTC()})
}

func TestHTTPSource_FetchPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/news", r.URL.Path)
		require.Equal(t, "golang", r.URL.Query().Get("query"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 25,
			"articles": [
				{"source": {"name": "Go Blog"}, "title": "Release notes", "url": "https://example.com/1", "publishedAt": "2024-06-01T10:00:00Z"},
				{"source": {"name": ""}, "title": "No image", "url": "https://example.com/2"}
			]
		}`))
	}))
	defer srv.Close()

	page, err := testHTTPSource(srv.URL).FetchPage(context.Background(), "golang", 2)
	require.NoError(t, err)
	require.Equal(t, 25, page.TotalResults)
	require.Len(t, page.Articles, 2)
	require.Equal(t, "Go Blog", page.Articles[0].SourceName)
	require.Equal(t, news.DefaultImageURL, page.Articles[1].ImageURL)
	require.NotEqual(t, page.Articles[0].ID, page.Articles[1].ID)
}

func TestHTTPSource_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"rate_limited","message":"slow down"}`, news.ErrRateLimited},
		{"unauthorized", http.StatusUnauthorized, `{"error":"unauthorized"}`, news.ErrUnauthorized},
		{"malformed upstream", http.StatusInternalServerError, `{"error":"malformed_upstream"}`, news.ErrMalformed},
		{"unavailable", http.StatusServiceUnavailable, `{"error":"unavailable"}`, news.ErrUnavailable},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := testHTTPSource(srv.URL).FetchPage(context.Background(), "q", 1)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHTTPSource_ServerDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := testHTTPSource(srv.URL).FetchPage(context.Background(), "q", 1)
	require.ErrorIs(t, err, news.ErrUnavailable)
}

func TestHTTPSource_MissingArticles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0}`))
	}))
	defer srv.Close()

	_, err := testHTTPSource(srv.URL).FetchPage(context.Background(), "q", 1)
	require.ErrorIs(t, err, news.ErrMalformed)
}
