package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics records terminal bookkeeping activity.
type POSMetrics struct {
	activitiesAppended  *prometheus.CounterVec
	activitiesDiscarded *prometheus.CounterVec
	cacheFetches        *prometheus.CounterVec
	reconcileDuration   *prometheus.HistogramVec
	reconcileSuccess    *prometheus.CounterVec
	reconcileFailure    *prometheus.CounterVec
}

// NewPOSMetrics registers the terminal metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	appended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_activities_appended",
		Help: "Activities accepted into the terminal journal.",
	}, []string{"kind"})
	discarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_activities_discarded",
		Help: "Malformed activities silently dropped at append.",
	}, []string{"kind"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_cache_fetches",
		Help: "Inventory cache fetch outcomes.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shift_reconcile_duration_seconds",
		Help:    "Duration of shift reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shift_reconcile_success",
		Help: "Successful shift reconciliations.",
	}, []string{"mode"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shift_reconcile_failure",
		Help: "Failed shift reconciliations.",
	}, []string{"stage"})
	reg.MustRegister(appended, discarded, fetches, duration, success, failure)
	return &POSMetrics{
		activitiesAppended:  appended,
		activitiesDiscarded: discarded,
		cacheFetches:        fetches,
		reconcileDuration:   duration,
		reconcileSuccess:    success,
		reconcileFailure:    failure,
	}
}

// IncAppended counts an accepted activity of the given kind.
func (m *POSMetrics) IncAppended(kind string) {
	if m == nil || m.activitiesAppended == nil {
		return
	}
	m.activitiesAppended.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncDiscarded counts a malformed activity dropped at append.
func (m *POSMetrics) IncDiscarded(kind string) {
	if m == nil || m.activitiesDiscarded == nil {
		return
	}
	m.activitiesDiscarded.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheFetch counts a cache fetch outcome (hit, refresh, error).
func (m *POSMetrics) IncCacheFetch(outcome string) {
	if m == nil || m.cacheFetches == nil {
		return
	}
	m.cacheFetches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveReconcile records the duration of a reconciliation attempt.
func (m *POSMetrics) ObserveReconcile(result string, duration time.Duration) {
	if m == nil || m.reconcileDuration == nil {
		return
	}
	m.reconcileDuration.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// IncReconcileSuccess counts a completed reconciliation; mode is created or updated.
func (m *POSMetrics) IncReconcileSuccess(mode string) {
	if m == nil || m.reconcileSuccess == nil {
		return
	}
	m.reconcileSuccess.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncReconcileFailure counts a failed reconciliation by stage.
func (m *POSMetrics) IncReconcileFailure(stage string) {
	if m == nil || m.reconcileFailure == nil {
		return
	}
	m.reconcileFailure.WithLabelValues(normalizeLabel(stage)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
