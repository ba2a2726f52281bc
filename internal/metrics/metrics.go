// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TaskOperations counts task store mutations and reads by operation name.
	TaskOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "task_operations_total",
			Help:      "Task store operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// ActivityFallbacks counts activity entries that missed the primary store.
	ActivityFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "activity_fallbacks_total",
			Help:      "Activity entries buffered or dropped after a failed append",
		},
		[]string{"result"},
	)

	Reminders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "reminders_total",
			Help:      "Reminder notifications by result",
		},
		[]string{"result"},
	)

	ReminderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "taskboard",
			Name:      "reminder_run_duration_seconds",
			Help:      "Duration of reminder scans",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Outcome maps an error to the label used by TaskOperations.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
