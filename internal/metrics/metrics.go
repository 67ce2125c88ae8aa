package metrics

import (
	"time"

	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the generation service
type Metrics struct {
	// Pipeline metrics
	PassDuration *prometheus.HistogramVec
	PassFailures *prometheus.CounterVec
	PassInFlight *prometheus.GaugeVec

	// Similarity metrics
	SimilarityChecks *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Async embedding storage
	EmbedMessages *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postgen",
			Name:      "pass_duration_seconds",
			Help:      "Duration of generation passes",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 45, 90},
		}, []string{"pass", "status"}),
		PassFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "pass_failures_total",
			Help:      "Generation passes that ended in an error",
		}, []string{"pass"}),
		PassInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "postgen",
			Name:      "pass_in_flight",
			Help:      "Generation passes currently running",
		}, []string{"pass"}),
		SimilarityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "similarity_checks_total",
			Help:      "Similarity checks by outcome",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result",
		}, []string{"cache", "result"}),
		EmbedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postgen",
			Name:      "embed_messages_total",
			Help:      "Async embedding messages by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.PassDuration,
		m.PassFailures,
		m.PassInFlight,
		m.SimilarityChecks,
		m.CacheLookups,
		m.EmbedMessages,
	)
	return m
}

var _ pipeline.Observer = &Metrics{}

func (m *Metrics) PassStarted(pass store.PassName) {
	m.PassInFlight.WithLabelValues(string(pass)).Inc()
}

func (m *Metrics) PassCompleted(pass store.PassName, elapsed time.Duration) {
	m.PassInFlight.WithLabelValues(string(pass)).Dec()
	m.PassDuration.WithLabelValues(string(pass), "ok").Observe(elapsed.Seconds())
}

func (m *Metrics) PassFailed(pass store.PassName, elapsed time.Duration, _ error) {
	m.PassInFlight.WithLabelValues(string(pass)).Dec()
	m.PassDuration.WithLabelValues(string(pass), "error").Observe(elapsed.Seconds())
	m.PassFailures.WithLabelValues(string(pass)).Inc()
}

// SimilarityChecked records a decision; outcome is "similar", "unique" or "error".
func (m *Metrics) SimilarityChecked(outcome string) {
	m.SimilarityChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) EmbedProcessed(result string) {
	m.EmbedMessages.WithLabelValues(result).Inc()
}
