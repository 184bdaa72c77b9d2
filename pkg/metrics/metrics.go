package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the crawler's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Items           *prometheus.CounterVec
	ItemDuration    *prometheus.HistogramVec
	Users           *prometheus.CounterVec
	Posts           *prometheus.CounterVec
	Changes         *prometheus.CounterVec
	Sightings       *prometheus.CounterVec
	StorageFailures *prometheus.CounterVec
	Cycles          prometheus.Counter
	CursorIndex     prometheus.Gauge
	WorkListSize    prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xwatch_items_total",
			Help: "Work items processed, by mode and outcome",
		}, []string{"mode", "outcome"}),
		ItemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xwatch_item_duration_seconds",
			Help:    "Time spent on one work item, excluding the inter-item delay",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"mode"}),
		Users: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xwatch_users_reconciled_total",
			Help: "Profile reconciliations, by action",
		}, []string{"action"}),
		Posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xwatch_posts_total",
			Help: "Posts seen, by result",
		}, []string{"result"}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xwatch_changes_total",
			Help: "Change events logged, by field",
		}, []string{"field"}),
		Sightings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xwatch_sightings_total",
			Help: "Author sightings recorded, by result",
		}, []string{"result"}),
		StorageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xwatch_storage_failures_total",
			Help: "Persistence operations that failed after retries",
		}, []string{"operation"}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xwatch_cycles_completed_total",
			Help: "Completed passes over the work list",
		}),
		CursorIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xwatch_cursor_index",
			Help: "Next work list index to process",
		}),
		WorkListSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xwatch_work_list_size",
			Help: "Number of items in the work list",
		}),
	}

	m.registry.MustRegister(
		m.Items, m.ItemDuration, m.Users, m.Posts, m.Changes, m.Sightings,
		m.StorageFailures, m.Cycles, m.CursorIndex, m.WorkListSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ItemDone records a finished work item
func (m *Metrics) ItemDone(mode, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Items.WithLabelValues(mode, outcome).Inc()
	m.ItemDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

// UserReconciled counts a profile reconciliation
func (m *Metrics) UserReconciled(action string) {
	if m == nil {
		return
	}
	m.Users.WithLabelValues(action).Inc()
}

// PostSeen counts a post by what happened to it
func (m *Metrics) PostSeen(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Posts.WithLabelValues(result).Add(float64(n))
}

// ChangeLogged counts a change event
func (m *Metrics) ChangeLogged(field string) {
	if m == nil {
		return
	}
	m.Changes.WithLabelValues(field).Inc()
}

// SightingRecorded counts an author sighting
func (m *Metrics) SightingRecorded(created bool) {
	if m == nil {
		return
	}
	result := "counted"
	if created {
		result = "created"
	}
	m.Sightings.WithLabelValues(result).Inc()
}

// StorageFailed counts a failed persistence operation
func (m *Metrics) StorageFailed(op string) {
	if m == nil {
		return
	}
	m.StorageFailures.WithLabelValues(op).Inc()
}

// Cursor publishes the cursor position
func (m *Metrics) Cursor(index, size int) {
	if m == nil {
		return
	}
	m.CursorIndex.Set(float64(index))
	m.WorkListSize.Set(float64(size))
}

// CycleCompleted counts a finished pass
func (m *Metrics) CycleCompleted() {
	if m == nil {
		return
	}
	m.Cycles.Inc()
}
