package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// chart pipeline.
type Metrics struct {
	SeriesConsumed   prometheus.Counter
	PayloadsProduced prometheus.Counter
	ProcessErrors    prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Validation and rendering metrics.
	ValidationOutcomes *prometheus.CounterVec // labels: outcome={valid,errors,critical}
	FallbackSelected   *prometheus.CounterVec // labels: type={none,partial-chart,simple-chart,table}
	SamplesValidated   prometheus.Counter
	ScaleCacheHits     prometheus.Gauge
	ScaleCacheMisses   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.SeriesConsumed,
		m.PayloadsProduced,
		m.ProcessErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ValidationOutcomes,
		m.FallbackSelected,
		m.SamplesValidated,
		m.ScaleCacheHits,
		m.ScaleCacheMisses,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SeriesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tide_chart",
			Name:      "series_consumed_total",
			Help:      "Total sample series read from the source topic.",
		}),
		PayloadsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tide_chart",
			Name:      "payloads_produced_total",
			Help:      "Total chart payloads written to the sink topic.",
		}),
		ProcessErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tide_chart",
			Name:      "process_errors_total",
			Help:      "Total series that could not be processed into a payload.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tide_chart",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tide_chart",
			Name:      "batch_size",
			Help:      "Number of series per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tide_chart",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-process-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ValidationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tide_chart",
			Name:      "validation_outcomes_total",
			Help:      "Series validation outcomes.",
		}, []string{"outcome"}),
		FallbackSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tide_chart",
			Name:      "fallback_selected_total",
			Help:      "Degraded rendering modes selected per series.",
		}, []string{"type"}),
		SamplesValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tide_chart",
			Name:      "samples_validated_total",
			Help:      "Total individual samples run through validation.",
		}),
		ScaleCacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tide_chart",
			Name:      "scale_cache_hits",
			Help:      "Scale memo cache hits since start.",
		}),
		ScaleCacheMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tide_chart",
			Name:      "scale_cache_misses",
			Help:      "Scale memo cache misses since start.",
		}),
	}
}
