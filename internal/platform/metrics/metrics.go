// Package metrics exposes Prometheus collectors for extraction and section
// classification.
package metrics

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the intake collectors. All names are prefixed with "intake_".
//
//   - intake_extractions_total{source} - records extracted, by text or audio
//   - intake_extraction_duration_seconds{source} - extraction latency
//   - intake_field_missing_total{field} - fields that resolved to absence
//   - intake_transcriptions_total{outcome} - collaborator calls
//   - intake_classifier_trainings_total{outcome} - training runs
//   - intake_classifier_training_duration_seconds - training latency
//   - intake_classifier_vocabulary_size - features in the live model
//   - intake_classifications_total{label} - predictions served
type Metrics struct {
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	FieldMissingTotal  *prometheus.CounterVec

	TranscriptionsTotal *prometheus.CounterVec

	TrainingsTotal       *prometheus.CounterVec
	TrainingDuration     prometheus.Histogram
	VocabularySize       prometheus.Gauge
	ClassificationsTotal *prometheus.CounterVec
}

// New returns the process-wide collectors, registering them on first use.
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ExtractionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "intake_extractions_total",
					Help: "Total number of clinical records extracted",
				},
				[]string{"source"},
			),
			ExtractionDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "intake_extraction_duration_seconds",
					Help:    "Duration of record extraction in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
				},
				[]string{"source"},
			),
			FieldMissingTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "intake_field_missing_total",
					Help: "Total number of extracted records missing a field",
				},
				[]string{"field"},
			),
			TranscriptionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "intake_transcriptions_total",
					Help: "Total number of voice-to-text calls",
				},
				[]string{"outcome"}, // "ok", "unclear", "error"
			),
			TrainingsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "intake_classifier_trainings_total",
					Help: "Total number of section classifier training runs",
				},
				[]string{"outcome"},
			),
			TrainingDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "intake_classifier_training_duration_seconds",
					Help:    "Duration of section classifier training in seconds",
					Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
				},
			),
			VocabularySize: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "intake_classifier_vocabulary_size",
					Help: "Number of features in the live section classifier",
				},
			),
			ClassificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "intake_classifications_total",
					Help: "Total number of section classifications served",
				},
				[]string{"label"},
			),
		}
	})
	return globalMetrics
}

// RecordExtraction records one extraction and the fields it missed.
func (m *Metrics) RecordExtraction(source string, durationSeconds float64, missing []string) {
	m.ExtractionsTotal.WithLabelValues(source).Inc()
	m.ExtractionDuration.WithLabelValues(source).Observe(durationSeconds)
	for _, f := range missing {
		m.FieldMissingTotal.WithLabelValues(f).Inc()
	}
}

// RecordTranscription records a collaborator call outcome.
func (m *Metrics) RecordTranscription(outcome string) {
	m.TranscriptionsTotal.WithLabelValues(outcome).Inc()
}

// RecordTraining records a training run. vocabulary is ignored on failure.
func (m *Metrics) RecordTraining(ok bool, durationSeconds float64, vocabulary int) {
	if !ok {
		m.TrainingsTotal.WithLabelValues("error").Inc()
		return
	}
	m.TrainingsTotal.WithLabelValues("ok").Inc()
	m.TrainingDuration.Observe(durationSeconds)
	m.VocabularySize.Set(float64(vocabulary))
}

// RecordClassification records a served prediction.
func (m *Metrics) RecordClassification(label string) {
	m.ClassificationsTotal.WithLabelValues(label).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
