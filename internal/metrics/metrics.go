// Package metrics exposes queue, merge and sync counters to prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/merge"
)

const namespace = "planner"

// Recorder implements queue.Metrics, planner.Metrics and syncer.Metrics.
type Recorder struct {
	registry *prometheus.Registry

	jobs        *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	batches     *prometheus.CounterVec
	batchSize   *prometheus.HistogramVec
	depth       *prometheus.GaugeVec
	merged      *prometheus.CounterVec
	syncs       *prometheus.CounterVec
}

// New registers every collector on a fresh registry, plus the Go and process
// collectors when withRuntime is set.
func New(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_total",
			Help:      "Upload jobs that reached a terminal status.",
		}, []string{"queue", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_duration_seconds",
			Help:      "Time spent extracting one file.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"queue"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "batches_total",
			Help:      "Completed upload batches.",
		}, []string{"queue"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "batch_records",
			Help:      "Records delivered per completed batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"queue"}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "queued_jobs",
			Help:      "Jobs waiting for extraction.",
		}, []string{"queue"}),
		merged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "records_total",
			Help:      "Merged records by outcome.",
		}, []string{"kind", "outcome"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "operations_total",
			Help:      "Remote sync operations by result.",
		}, []string{"op", "result"}),
	}
	r.registry.MustRegister(r.jobs, r.jobDuration, r.batches, r.batchSize, r.depth, r.merged, r.syncs)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) JobFinished(queue string, status constants.JobStatus, elapsed time.Duration) {
	r.jobs.WithLabelValues(queue, string(status)).Inc()
	r.jobDuration.WithLabelValues(queue).Observe(elapsed.Seconds())
}

func (r *Recorder) BatchCompleted(queue string, records int) {
	r.batches.WithLabelValues(queue).Inc()
	r.batchSize.WithLabelValues(queue).Observe(float64(records))
}

func (r *Recorder) Depth(queue string, queued int) {
	r.depth.WithLabelValues(queue).Set(float64(queued))
}

func (r *Recorder) MergeApplied(kind string, s merge.Summary) {
	r.merged.WithLabelValues(kind, "added").Add(float64(s.Added))
	r.merged.WithLabelValues(kind, "updated").Add(float64(s.Updated))
	r.merged.WithLabelValues(kind, "unchanged").Add(float64(s.Unchanged))
}

func (r *Recorder) SyncFinished(op string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.syncs.WithLabelValues(op, result).Inc()
}
