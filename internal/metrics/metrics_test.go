package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := New()
	handler := m.Middleware("/tasks/{id}/claim", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/tasks/abc/claim", nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/tasks/{id}/claim", http.MethodPost, "409"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.PointsBooked("earned_report", 100)
	m.PointsBooked("earned_report", 0)
	m.Verification(true)
	m.Verification(false)
	m.Verification(false)
	m.Claim("claimed")

	if got := testutil.ToFloat64(m.pointsBooked.WithLabelValues("earned_report")); got != 100 {
		t.Fatalf("expected 100 points, got %v", got)
	}
	if got := testutil.ToFloat64(m.verifications.WithLabelValues("rejected")); got != 2 {
		t.Fatalf("expected 2 rejections, got %v", got)
	}
	if got := testutil.ToFloat64(m.claims.WithLabelValues("claimed")); got != 1 {
		t.Fatalf("expected 1 claim, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Verification(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ecocycle_tasks_verifications_total") {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", http.MethodGet, 200, 0)
	m.PointsBooked("earned_report", 1)
	m.Verification(true)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := m.Middleware("/", next); got == nil {
		t.Fatal("nil metrics should pass the handler through")
	}
}
