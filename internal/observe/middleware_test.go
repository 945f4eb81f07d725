package observe

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// serve routes req through a mux with /readyz and /status behind Middleware
// and returns the response and the trace ID seen by the handler.
func serve(t *testing.T, m *Metrics, readyStatus int, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		seen = traceID(r.Context())
		w.WriteHeader(readyStatus)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		seen = traceID(r.Context())
	})
	rec := httptest.NewRecorder()
	Middleware(m)(mux).ServeHTTP(rec, req)
	return rec, seen
}

func routeOf(t *testing.T, rm metricdata.ResourceMetrics) string {
	t.Helper()
	met := findMetric(rm, "pbs.http.request.duration")
	if met == nil {
		t.Fatal("pbs.http.request.duration not recorded")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("unexpected histogram data: %+v", met.Data)
	}
	v, _ := hist.DataPoints[0].Attributes.Value("route")
	return v.AsString()
}

func TestMiddleware_NamesSpanAfterRoute(t *testing.T) {
	m, reader := newTestMetrics(t)
	exp := useTestTracerProvider(t)

	rec, id := serve(t, m, http.StatusOK, httptest.NewRequest(http.MethodGet, "/status", nil))

	if len(id) != 32 {
		t.Errorf("trace ID length = %d, want 32", len(id))
	}
	if got := rec.Header().Get(CorrelationHeader); got != id {
		t.Errorf("%s = %q, want %q", CorrelationHeader, got, id)
	}
	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "GET /status" {
		t.Fatalf("spans = %v, want one GET /status span", spans)
	}
	if got := routeOf(t, collect(t, reader)); got != "GET /status" {
		t.Errorf("route attribute = %q, want %q", got, "GET /status")
	}
}

func TestMiddleware_FailedReadiness(t *testing.T) {
	m, _ := newTestMetrics(t)
	exp := useTestTracerProvider(t)
	logs := captureLogs(t)

	rec, _ := serve(t, m, http.StatusServiceUnavailable, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	span := exp.GetSpans()[0]
	if span.Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", span.Status.Code)
	}
	found := false
	for _, a := range span.Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() == 503 {
			found = true
		}
	}
	if !found {
		t.Error("span missing http.response.status_code attribute")
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("failed readiness not logged at warn level: %s", logs)
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	m, reader := newTestMetrics(t)
	exp := useTestTracerProvider(t)

	rec, _ := serve(t, m, http.StatusOK, httptest.NewRequest(http.MethodGet, "/some/random/path", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := exp.GetSpans()[0].Name; got != UnmatchedRoute {
		t.Errorf("span name = %q, want %q", got, UnmatchedRoute)
	}
	if got := routeOf(t, collect(t, reader)); got != UnmatchedRoute {
		t.Errorf("route attribute = %q, want %q", got, UnmatchedRoute)
	}
}

func TestMiddleware_PropagatesW3CTraceContext(t *testing.T) {
	m, _ := newTestMetrics(t)
	useTestTracerProvider(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec, id := serve(t, m, http.StatusOK, req)

	const want = "4bf92f3577b34da6a3ce929d0e0e4736"
	if id != want {
		t.Errorf("trace ID = %q, want %q", id, want)
	}
	if got := rec.Header().Get(CorrelationHeader); got != want {
		t.Errorf("%s = %q, want %q", CorrelationHeader, got, want)
	}
}
