// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ConciergeEscalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_escalations_total",
			Help: "Escalation guidance appended to assistant responses",
		},
		[]string{"target", "urgency"},
	)

	ConciergeGuardRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_guard_rejections_total",
			Help: "Escalations suppressed before reaching the homeowner",
		},
		[]string{"reason"},
	)

	ConciergePlaybookRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_playbook_renders_total",
			Help: "Playbook responses rendered by topic",
		},
		[]string{"topic", "generic"},
	)

	ConciergeEmergencyAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_emergency_alerts_total",
			Help: "Emergency ops alerts by outcome",
		},
		[]string{"status"},
	)
)

// TrackJob marks a job active and returns a func that records its outcome.
// An empty errorCode counts as success.
func TrackJob(taskType string) func(errorCode string) {
	timer := prometheus.NewTimer(WorkerJobDuration.WithLabelValues(taskType))
	WorkerJobsActive.WithLabelValues(taskType).Inc()

	return func(errorCode string) {
		timer.ObserveDuration()
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			return
		}
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
	}
}
