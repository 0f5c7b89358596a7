package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || newsCacheLookupsTotal == nil ||
		upstreamErrorsTotal == nil || uploadsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveCacheLookup("hit")
	if val := testutil.ToFloat64(newsCacheLookupsTotal.WithLabelValues("hit")); val < 1 {
		t.Errorf("expected cache hit counter >= 1, got %f", val)
	}
}

func TestObserversAreNoOpsBeforeInit(t *testing.T) {
	// Must not panic even when collectors are nil; packages under test call
	// these without initializing metrics.
	saved := newsCacheLookupsTotal
	newsCacheLookupsTotal = nil
	defer func() { newsCacheLookupsTotal = saved }()

	ObserveCacheLookup("miss")
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	Init()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200"))

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/news", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200"))
	if after != before+1 {
		t.Fatalf("expected request counter to advance by 1, got %f -> %f", before, after)
	}

	ObserveHTTPRequest(http.MethodGet, "/api/news", http.StatusOK, 10*time.Millisecond)
}
