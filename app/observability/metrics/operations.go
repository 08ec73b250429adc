// Package metrics exposes per-module Prometheus instrumentation. Each module
// gets an interface, a registry-backed implementation and a no-op for tests.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marathon_draft"

// OperationMetrics is the RED set recorded around every service operation.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)
}

type operations struct {
	module   string
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newOperations(reg prometheus.Registerer, module string) *operations {
	o := &operations{
		module: module,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: module,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: module,
			Name:      "operation_outcomes_total",
			Help:      "Service operations finished, by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: module,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(o.attempts, o.outcomes, o.duration)
	return o
}

func (o *operations) RecordOperationAttempt(_ context.Context, operation string) {
	o.attempts.WithLabelValues(operation).Inc()
}

func (o *operations) RecordOperationSuccess(_ context.Context, operation string) {
	o.outcomes.WithLabelValues(operation, "success").Inc()
}

func (o *operations) RecordOperationFailure(_ context.Context, operation string) {
	o.outcomes.WithLabelValues(operation, "failure").Inc()
}

func (o *operations) RecordOperationDuration(_ context.Context, operation string, d time.Duration) {
	o.duration.WithLabelValues(operation).Observe(d.Seconds())
}
