package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	scheduleCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dutyroster",
			Name:      "schedule_created_total",
			Help:      "Count of schedules generated.",
		},
	)

	scheduleSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dutyroster",
			Name:      "schedule_saved_total",
			Help:      "Count of schedules persisted to the saved list.",
		},
	)

	assignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dutyroster",
			Name:      "assignment_total",
			Help:      "Count of slot mutations by action.",
		},
		[]string{"action"},
	)

	autoFills = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dutyroster",
			Name:      "autofill_total",
			Help:      "Count of auto-fill runs.",
		},
	)

	storageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dutyroster",
			Name:      "storage_errors_total",
			Help:      "Count of best-effort persistence failures by operation.",
		},
		[]string{"op"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dutyroster",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(scheduleCreated, scheduleSaved, assignments, autoFills, storageErrors, httpRequests)
	})
}

func IncScheduleCreated() { scheduleCreated.Inc() }

func IncScheduleSaved() { scheduleSaved.Inc() }

func IncAssignment(action string) { assignments.WithLabelValues(action).Inc() }

func IncAutoFill() { autoFills.Inc() }

func IncStorageError(op string) { storageErrors.WithLabelValues(op).Inc() }

func IncHTTP(endpoint string) { httpRequests.WithLabelValues(endpoint).Inc() }
