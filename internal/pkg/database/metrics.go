package database

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tollmanagement",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Number of store operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	storeOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tollmanagement",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Time spent in store operations, including the database round trips.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConnectionNotSet):
		return "no_connection"
	case IsConstraintViolation(err):
		return "constraint_violation"
	default:
		return "error"
	}
}

func observeOperation(op string, start time.Time, err error) {
	storeOperations.WithLabelValues(op, outcomeOf(err)).Inc()
	storeOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
