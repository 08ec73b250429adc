package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// LockMetrics instruments lock evaluation and the scheduled lock job.
type LockMetrics interface {
	OperationMetrics
	RecordEvaluation(ctx context.Context, locked bool)
	RecordLockJob(ctx context.Context, outcome string)
}

type lockMetrics struct {
	*operations
	evaluations *prometheus.CounterVec
	jobs        *prometheus.CounterVec
}

// NewLockMetrics registers the lock metric set on reg.
func NewLockMetrics(reg prometheus.Registerer) LockMetrics {
	m := &lockMetrics{
		operations: newOperations(reg, "lock"),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "evaluations_total",
			Help:      "Editability evaluations, by lock phase.",
		}, []string{"phase"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "jobs_total",
			Help:      "Scheduled lock jobs worked, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.evaluations, m.jobs)
	return m
}

func (m *lockMetrics) RecordEvaluation(_ context.Context, locked bool) {
	phase := "open"
	if locked {
		phase = "locked"
	}
	m.evaluations.WithLabelValues(phase).Inc()
}

func (m *lockMetrics) RecordLockJob(_ context.Context, outcome string) {
	m.jobs.WithLabelValues(outcome).Inc()
}
