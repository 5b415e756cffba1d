// Package metrics exposes Prometheus instrumentation for the training
// load engine. All collectors live on a package-private registry so
// tests never collide with the default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "paceline"
	subsystem = "engine"
)

var registry = prometheus.NewRegistry()

var (
	sessionsNormalized prometheus.Counter
	sessionsInvalid    prometheus.Counter
	sessionsDuplicate  prometheus.Counter
	sessionsDegraded   prometheus.Counter
	batchesAborted     prometheus.Counter
	plansGenerated     prometheus.Counter
	planFailures       prometheus.Counter
	updateDuration     prometheus.Histogram

	chronicLoad *prometheus.GaugeVec
	acuteLoad   *prometheus.GaugeVec
	loadBalance *prometheus.GaugeVec

	ingestQueueSize   prometheus.Gauge
	ingestJobs        prometheus.Counter
	ingestJobErrors   prometheus.Counter
	ingestWorkerGauge prometheus.Gauge
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	auto := promauto.With(registry)

	sessionsNormalized = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "sessions_normalized_total",
		Help: "Sessions successfully normalized into summaries",
	})
	sessionsInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "sessions_invalid_total",
		Help: "Sessions rejected as malformed and skipped",
	})
	sessionsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "sessions_duplicate_total",
		Help: "Sessions skipped because their ID was already applied",
	})
	sessionsDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "sessions_degraded_total",
		Help: "Sessions normalized from duration only (no power or HR)",
	})
	batchesAborted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "batches_aborted_total",
		Help: "Update batches aborted by a sequencing violation",
	})
	plansGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "plans_generated_total",
		Help: "Recommendation sets produced",
	})
	planFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "plan_failures_total",
		Help: "Plan generations that failed for lack of template coverage",
	})
	updateDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "update_duration_seconds",
		Help:    "Wall time of a full athlete update pipeline",
		Buckets: prometheus.DefBuckets,
	})

	chronicLoad = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "chronic_load",
		Help: "Current chronic (fitness) load per athlete",
	}, []string{"athlete_id"})
	acuteLoad = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "acute_load",
		Help: "Current acute (fatigue) load per athlete",
	}, []string{"athlete_id"})
	loadBalance = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "load_balance",
		Help: "Chronic minus acute load per athlete",
	}, []string{"athlete_id"})

	ingestQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ingest_queue_size",
		Help: "Jobs waiting in the ingest queue",
	})
	ingestJobs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ingest_jobs_total",
		Help: "Ingest jobs pulled off the queue",
	})
	ingestJobErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ingest_job_errors_total",
		Help: "Ingest jobs that finished with an error",
	})
	ingestWorkerGauge = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ingest_worker_count",
		Help: "Configured ingest worker count",
	})
}

// RecordSessionNormalized increments the normalized-session counter.
func RecordSessionNormalized() { sessionsNormalized.Inc() }

// RecordSessionInvalid increments the invalid-session counter.
func RecordSessionInvalid() { sessionsInvalid.Inc() }

// RecordSessionDuplicate increments the duplicate-session counter.
func RecordSessionDuplicate() { sessionsDuplicate.Inc() }

// RecordSessionDegraded increments the degraded-estimate counter.
func RecordSessionDegraded() { sessionsDegraded.Inc() }

// RecordBatchAborted increments the aborted-batch counter.
func RecordBatchAborted() { batchesAborted.Inc() }

// RecordPlanGenerated increments the generated-plan counter.
func RecordPlanGenerated() { plansGenerated.Inc() }

// RecordPlanFailure increments the failed-plan counter.
func RecordPlanFailure() { planFailures.Inc() }

// ObserveUpdateDuration records one update pipeline's wall time in seconds.
func ObserveUpdateDuration(seconds float64) { updateDuration.Observe(seconds) }

// UpdateLoadGauges publishes an athlete's current load numbers.
func UpdateLoadGauges(athleteID string, chronic, acute float64) {
	chronicLoad.WithLabelValues(athleteID).Set(chronic)
	acuteLoad.WithLabelValues(athleteID).Set(acute)
	loadBalance.WithLabelValues(athleteID).Set(chronic - acute)
}

// UpdateIngestQueueSize publishes the current ingest queue depth.
func UpdateIngestQueueSize(n int) { ingestQueueSize.Set(float64(n)) }

// RecordIngestJob increments the processed-job counter.
func RecordIngestJob() { ingestJobs.Inc() }

// RecordIngestJobError increments the failed-job counter.
func RecordIngestJobError() { ingestJobErrors.Inc() }

// UpdateIngestWorkerCount publishes the configured worker count.
func UpdateIngestWorkerCount(n int) { ingestWorkerGauge.Set(float64(n)) }

// Handler returns an HTTP handler serving the engine's metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
