package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwatch/pkg/logger"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProgressEndpoint(t *testing.T) {
	tracker := NewTracker("run1", "profiles")
	tracker.Processing(2, 3, 10, "jack")
	srv := NewServer("127.0.0.1:0", tracker, nil, logger.NewNopLogger())

	rec := get(t, srv.Handler(), "/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "run1", snap.RunID)
	assert.Equal(t, StateProcessing, snap.State)
	assert.Equal(t, 3, snap.Index)
	assert.Equal(t, 10, snap.Total)
	assert.Equal(t, "jack", snap.CurrentItem)
}

func TestHealthReflectsState(t *testing.T) {
	tracker := NewTracker("run1", "hashtags")
	srv := NewServer("", tracker, nil, logger.NewNopLogger())

	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/health").Code)

	tracker.Stopped(errors.New("session expired"))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), "/health").Code)
	assert.Equal(t, "session expired", tracker.Snapshot().LastError)
}

func TestMetricsRouteIsOptional(t *testing.T) {
	without := NewServer("", NewTracker("r", "profiles"), nil, logger.NewNopLogger())
	assert.Equal(t, http.StatusNotFound, get(t, without.Handler(), "/metrics").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("xwatch_items_total 1\n"))
	})
	with := NewServer("", NewTracker("r", "profiles"), metrics, logger.NewNopLogger())
	rec := get(t, with.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "xwatch_items_total")
}

func TestTrackerTransitions(t *testing.T) {
	tracker := NewTracker("r", "profiles")
	tracker.Processing(0, 0, 2, "a")
	tracker.ItemDone(nil)
	tracker.Sleeping(StatePacing, time.Minute)

	snap := tracker.Snapshot()
	assert.Equal(t, StatePacing, snap.State)
	assert.Empty(t, snap.CurrentItem)
	assert.False(t, snap.LastItemAt.IsZero())
	assert.True(t, snap.WakeAt.After(time.Now()))

	var nilTracker *Tracker
	assert.NotPanics(t, func() {
		nilTracker.Processing(0, 0, 0, "")
		nilTracker.Stopped(nil)
	})
	assert.Equal(t, Snapshot{}, nilTracker.Snapshot())
}
