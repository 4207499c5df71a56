package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// MatcherMetrics instruments the matching engine. It satisfies
// usecase.MatcherMetrics.
type MatcherMetrics struct {
	registry *prometheus.Registry
	service  string

	itemTotal          *prometheus.CounterVec
	itemDuration       *prometheus.HistogramVec
	batchTotal         *prometheus.CounterVec
	batchConfidence    prometheus.Histogram
	fuzzyFallbackTotal prometheus.Counter
	inFlight           prometheus.Gauge
}

func NewMatcherMetrics(service string) *MatcherMetrics {
	registry := prometheus.NewRegistry()

	itemTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pm",
			Subsystem: "matcher",
			Name:      "item_total",
			Help:      "Processed line items by outcome.",
		},
		[]string{"service", "outcome"},
	)
	itemDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pm",
			Subsystem: "matcher",
			Name:      "item_duration_seconds",
			Help:      "Per-item matching duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pm",
			Subsystem: "matcher",
			Name:      "batch_total",
			Help:      "Completed batch runs by result.",
		},
		[]string{"service", "result"},
	)
	batchConfidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pm",
			Subsystem: "matcher",
			Name:      "batch_confidence",
			Help:      "Overall batch confidence distribution.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fuzzyFallbackTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pm",
			Subsystem: "matcher",
			Name:      "fuzzy_fallback_total",
			Help:      "Times the fuzzy fallback strategy was triggered.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pm",
			Subsystem: "matcher",
			Name:      "items_in_flight",
			Help:      "Line items currently being matched.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(itemTotal, itemDuration, batchTotal, batchConfidence, fuzzyFallbackTotal, inFlight)

	return &MatcherMetrics{
		registry:           registry,
		service:            service,
		itemTotal:          itemTotal,
		itemDuration:       itemDuration,
		batchTotal:         batchTotal,
		batchConfidence:    batchConfidence,
		fuzzyFallbackTotal: fuzzyFallbackTotal,
		inFlight:           inFlight,
	}
}

func (m *MatcherMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MatcherMetrics) ItemProcessed(outcome string, duration time.Duration) {
	m.itemTotal.WithLabelValues(m.service, outcome).Inc()
	m.itemDuration.WithLabelValues(m.service, outcome).Observe(duration.Seconds())
}

func (m *MatcherMetrics) FuzzyFallbackTriggered() {
	m.fuzzyFallbackTotal.Inc()
}

func (m *MatcherMetrics) BatchProcessed(stats domain.BatchStatistics) {
	result := "complete"
	if stats.Failed > 0 || stats.TimedOut > 0 {
		result = "partial"
	}
	m.batchTotal.WithLabelValues(m.service, result).Inc()
}

// ObserveBatchConfidence records the batch confidence separately because the
// orchestrator computes it after the per-item statistics.
func (m *MatcherMetrics) ObserveBatchConfidence(confidence float64) {
	m.batchConfidence.Observe(confidence)
}

func (m *MatcherMetrics) StartItem() {
	m.inFlight.Inc()
}

func (m *MatcherMetrics) FinishItem() {
	m.inFlight.Dec()
}
