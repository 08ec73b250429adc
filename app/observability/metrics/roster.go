package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// RosterMetrics instruments roster validation and autosave.
type RosterMetrics interface {
	OperationMetrics
	RecordValidation(ctx context.Context, valid bool)
	RecordStateConflict(ctx context.Context, operation string)
}

type rosterMetrics struct {
	*operations
	validations *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
}

// NewRosterMetrics registers the roster metric set on reg.
func NewRosterMetrics(reg prometheus.Registerer) RosterMetrics {
	m := &rosterMetrics{
		operations: newOperations(reg, "roster"),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "validations_total",
			Help:      "Roster validations, by result.",
		}, []string{"result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "state_conflicts_total",
			Help:      "Mutations refused because the roster was not editable.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.validations, m.conflicts)
	return m
}

func (m *rosterMetrics) RecordValidation(_ context.Context, valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.validations.WithLabelValues(result).Inc()
}

func (m *rosterMetrics) RecordStateConflict(_ context.Context, operation string) {
	m.conflicts.WithLabelValues(operation).Inc()
}
