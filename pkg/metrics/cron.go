package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics tracks housekeeping runs in the cron worker.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  prometheus.Counter
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Housekeeping job runs by job and outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Housekeeping job duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cron_cycles_skipped_total",
			Help: "Cycles skipped because another worker held the lock.",
		}),
	}
	reg.MustRegister(m.runs, m.duration, m.skipped)
	return m
}

// ObserveRun records one job execution; a non-nil err counts as a failure.
func (c *CronJobMetrics) ObserveRun(job string, d time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	job = normalizeLabel(job)
	c.runs.WithLabelValues(job, outcome).Inc()
	c.duration.WithLabelValues(job).Observe(d.Seconds())
}

func (c *CronJobMetrics) IncLockSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
