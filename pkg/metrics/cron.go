package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records metadata for scheduled jobs.
type CronJobMetrics struct {
	duration       *prometheus.HistogramVec
	success        *prometheus.CounterVec
	failure        *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	anomalies      *prometheus.CounterVec
	flaggedShelves *prometheus.GaugeVec
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_records_transitioned",
		Help: "Records transitioned by sweep jobs.",
	}, []string{"job"})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_record_anomalies",
		Help: "Records a sweep job skipped because of an anomaly.",
	}, []string{"job"})
	flaggedShelves := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shelf_audit_flagged",
		Help: "Shelves flagged by the latest safety audit.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, transitions, anomalies, flaggedShelves)
	return &CronJobMetrics{
		duration:       duration,
		success:        success,
		failure:        failure,
		transitions:    transitions,
		anomalies:      anomalies,
		flaggedShelves: flaggedShelves,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddTransitions records how many records a sweep transitioned.
func (c *CronJobMetrics) AddTransitions(job string, count int) {
	if c == nil || c.transitions == nil || count <= 0 {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(job)).Add(float64(count))
}

// AddAnomalies records how many records a sweep skipped.
func (c *CronJobMetrics) AddAnomalies(job string, count int) {
	if c == nil || c.anomalies == nil || count <= 0 {
		return
	}
	c.anomalies.WithLabelValues(normalizeLabel(job)).Add(float64(count))
}

// SetFlaggedShelves records the size of the latest safety audit report.
func (c *CronJobMetrics) SetFlaggedShelves(job string, count int) {
	if c == nil || c.flaggedShelves == nil {
		return
	}
	c.flaggedShelves.WithLabelValues(normalizeLabel(job)).Set(float64(count))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
