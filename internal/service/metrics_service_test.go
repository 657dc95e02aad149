package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesScheduleCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/schedules/week", http.StatusOK, 20*time.Millisecond)
	m.RecordScheduleMutation("create")
	m.RecordConflicts("warn", 2)
	m.RecordConflicts("warn", 0)
	m.RecordGridRefresh(nil)
	m.RecordGridRefresh(errors.New("redis down"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `schedule_mutations_total{operation="create"} 1`))
	assert.True(t, strings.Contains(body, `schedule_conflicts_detected_total{mode="warn"} 2`))
	assert.True(t, strings.Contains(body, `schedule_grid_refresh_total{result="error"} 1`))

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.ScheduleMutations)
	assert.Equal(t, uint64(2), snapshot.ConflictsDetected)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.5)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordScheduleMutation("create")
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
