package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	RegisterHTTPMetrics()
	RegisterMatchMetrics()
	RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/suggest-project-name", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suggested_project_names":[]}`))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodPost, "/suggest-project-name", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/suggest-project-name", "200")); v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusAndPattern(t *testing.T) {
	r := newRouter()

	tests := []struct {
		path    string
		pattern string
		status  string
	}{
		{"/health", "/health", "503"},
		{"/items/42", "/items/{id}", "404"},
		{"/items/43", "/items/{id}", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))

			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.pattern, tc.status)); v < 1 {
				t.Errorf("expected requests_total{path=%s,status=%s} >= 1, got %f", tc.pattern, tc.status, v)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q, want unknown", got)
	}
	if got := normalizePath("/suggest-project-name"); got != "/suggest-project-name" {
		t.Errorf("unexpected %q", got)
	}
}

func TestMetricsEndpoint_ExposesNamespace(t *testing.T) {
	SuggestRequestsTotal.WithLabelValues("matched").Inc()
	CorpusEntries.Set(7)

	r := newRouter()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, name := range []string{
		"propmatch_suggest_requests_total",
		"propmatch_corpus_entries 7",
		"propmatch_http_requests_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %q in metrics output", name)
		}
	}
}

func TestRegister_Idempotent(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("second registration panicked: %v", r)
		}
	}()
	RegisterHTTPMetrics()
	RegisterMatchMetrics()
	RegisterEmbeddingMetrics()
}
