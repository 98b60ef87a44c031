package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/courses", http.StatusOK, 15*time.Millisecond)
	m.RecordEnrollment("enrolled")
	m.RecordEnrollment("waitlisted")
	m.RecordGPAComputation()
	m.RecordExport("transcript", "pdf")
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `enrollment_decisions_total{outcome="enrolled"} 1`)
	assert.Contains(t, body, `enrollment_decisions_total{outcome="waitlisted"} 1`)
	assert.Contains(t, body, "gpa_computations_total 1")
	assert.Contains(t, body, `exports_generated_total{format="pdf",kind="transcript"} 1`)
	assert.Contains(t, body, "cache_hit_ratio 0.5")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/courses",status="200"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordEnrollment("enrolled")
	m.RecordGPAComputation()
	m.RecordExport("roster", "csv")
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
