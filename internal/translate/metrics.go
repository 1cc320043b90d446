package translate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments a Translator.
type Metrics struct {
	translations *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetrics creates translator metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cypherql",
			Name:      "translations_total",
			Help:      "Root fields translated, by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cypherql",
			Name:      "translation_duration_seconds",
			Help:      "Time to translate one request.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.translations, m.duration)
	}
	return m
}

func (m *Metrics) observe(operation, status string) {
	if m == nil {
		return
	}
	m.translations.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) observeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
