package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dsg_etl"

// Rejection reasons used as the "reason" label of ObservationsRejected.
const (
	ReasonFeatureKind = "feature_kind"
	ReasonValueKind   = "value_kind"
	ReasonGeometry    = "geometry"
	ReasonOther       = "other"
)

// Engine run outcomes used as the "outcome" label of EngineRuns.
const (
	OutcomeSuccess           = "success"
	OutcomeRejected          = "rejected"
	OutcomeResourceExhausted = "resource_exhausted"
)

// Remote axis-order lookup outcomes used as the "outcome" label of CRSLookups.
const (
	CRSCacheHit = "cache_hit"
	CRSResolved = "resolved"
	CRSFailed   = "failed"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the DSG pipeline.
type Metrics struct {
	ObservationsConsumed prometheus.Counter
	DatasetsProduced     prometheus.Counter
	DecodeErrors         prometheus.Counter
	ObservationsRejected *prometheus.CounterVec // labels: reason
	PipelineRunning      prometheus.Gauge

	// Engine metrics.
	SensorsClassified *prometheus.CounterVec // labels: feature_type
	EngineRuns        *prometheus.CounterVec // labels: outcome
	EngineRunDuration prometheus.Histogram
	BatchSplits       prometheus.Counter

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	MemoryUsedPercent prometheus.Gauge

	// Remote CRS resolver metrics.
	CRSLookups        *prometheus.CounterVec // labels: outcome
	CRSLookupDuration prometheus.Histogram
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_consumed_total",
			Help:      help("Total observation messages read from the source topic."),
		}),
		DatasetsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_produced_total",
			Help:      help("Total feature-type datasets written to the sink topic."),
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      help("Total messages that could not be decoded into an observation."),
		}),
		ObservationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_rejected_total",
			Help:      help("Observations dropped from a batch after the engine rejected them."),
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		SensorsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensors_classified_total",
			Help:      help("Sensors assigned to a feature type, per engine run."),
		}, []string{"feature_type"}),
		EngineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_runs_total",
			Help:      help("Classification engine runs by outcome."),
		}, []string{"outcome"}),
		EngineRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_run_duration_seconds",
			Help:      help("Duration of one classification engine run."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		BatchSplits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_splits_total",
			Help:      help("Batches split in half after the memory guard aborted a run."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 5000, 10000},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		MemoryUsedPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_percent",
			Help:      help("System memory in use at the last memory guard check."),
		}),
		CRSLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crs_lookups_total",
			Help:      help("Axis-order lookups answered by the remote CRS resolver, by outcome."),
		}, []string{"outcome"}),
		CRSLookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crs_lookup_duration_seconds",
			Help:      help("Duration of remote CRS resolver requests."),
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.ObservationsConsumed,
		m.DatasetsProduced,
		m.DecodeErrors,
		m.ObservationsRejected,
		m.PipelineRunning,
		m.SensorsClassified,
		m.EngineRuns,
		m.EngineRunDuration,
		m.BatchSplits,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.MemoryUsedPercent,
		m.CRSLookups,
		m.CRSLookupDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
