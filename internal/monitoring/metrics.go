// Package monitoring exposes the engine's Prometheus metrics: job and
// query throughput, persisted identities by tier, provider rate-limit
// events, and queue depth.
package monitoring

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/identity-cli/internal/model"
)

// Metrics holds the engine's collectors, bound to one registry.
type Metrics struct {
	registry *prometheus.Registry

	jobsProcessed       *prometheus.CounterVec
	jobDuration         prometheus.Histogram
	queriesExecuted     *prometheus.CounterVec
	identitiesPersisted *prometheus.CounterVec
	rateLimitEvents     *prometheus.CounterVec
	queueDepth          prometheus.Gauge
}

// New registers the engine collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		jobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "jobs_processed_total",
			Help:      "Resolution jobs processed, by terminal status.",
		}, []string{"status"}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "identity",
			Name:      "job_duration_seconds",
			Help:      "End-to-end resolution job duration.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		queriesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "search_queries_total",
			Help:      "Search queries executed, by provider.",
		}, []string{"provider"}),
		identitiesPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "identities_persisted_total",
			Help:      "Identity candidates persisted, by platform and bridge tier.",
		}, []string{"platform", "tier"}),
		rateLimitEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "provider_rate_limited_total",
			Help:      "Rate-limit responses observed, by provider.",
		}, []string{"provider"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "identity",
			Name:      "queue_depth",
			Help:      "Sessions currently queued or running.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSession records a finished session: job status and duration,
// per-provider query and rate-limit counts, and persisted identities.
func (m *Metrics) ObserveSession(sess *model.EnrichmentSession) {
	if sess == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(string(sess.Status)).Inc()
	if sess.DurationMS > 0 {
		m.jobDuration.Observe(float64(sess.DurationMS) / 1000)
	}
	if sess.Trace == nil {
		return
	}
	for _, pt := range sess.Trace.Platforms {
		provider := pt.Provider
		if provider == "" {
			provider = "direct"
		}
		m.queriesExecuted.WithLabelValues(provider).Add(float64(pt.QueriesExecuted))
		if pt.RateLimited {
			m.rateLimitEvents.WithLabelValues(provider).Inc()
		}
	}
}

// ObserveJobFailure counts a job that failed before a session record
// was produced.
func (m *Metrics) ObserveJobFailure() {
	m.jobsProcessed.WithLabelValues(string(model.SessionFailed)).Inc()
}

// ObserveIdentity counts one persisted identity candidate.
func (m *Metrics) ObserveIdentity(ic model.IdentityCandidate) {
	m.identitiesPersisted.WithLabelValues(string(ic.Platform), strconv.Itoa(int(ic.BridgeTier))).Inc()
}

// SetQueueDepth updates the queued+running session gauge.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}
