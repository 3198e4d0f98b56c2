package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AbdouB/dialogue/internal/models"
)

// Metrics exposes Prometheus collectors for response generation
type Metrics struct {
	responses   *prometheus.CounterVec
	enhancement *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cache       *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on a
// registration error. Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dialogue",
				Name:      "responses_generated_total",
				Help:      "Stakeholder responses generated, by stakeholder and generation type.",
			},
			[]string{"stakeholder", "generation_type"},
		),
		enhancement: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dialogue",
				Name:      "enhancement_outcomes_total",
				Help:      "Outcomes of the text enhancement pass.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dialogue",
				Name:      "response_generation_seconds",
				Help:      "Time spent producing responses for one request.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dialogue",
				Name:      "derived_cache_requests_total",
				Help:      "Derived metrics cache lookups for stored scenarios.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.responses, m.enhancement, m.duration, m.cache)
	return m
}

// ObserveResponses counts generated responses and their enhancement outcomes
func (m *Metrics) ObserveResponses(mode string, elapsed time.Duration, responses ...*models.GeneratedResponse) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		m.responses.WithLabelValues(string(resp.StakeholderID), string(resp.GenerationType)).Inc()
		if resp.Metadata != nil && resp.Metadata.Enhancement != "" {
			m.enhancement.WithLabelValues(resp.Metadata.Enhancement).Inc()
		}
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
