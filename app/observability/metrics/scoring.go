package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// ScoringMetrics instruments race scoring.
type ScoringMetrics interface {
	OperationMetrics
	RecordPointsAwarded(ctx context.Context, component string, points int)
	RecordRecordBonus(ctx context.Context, recordType, status string)
	RecordRejectedResults(ctx context.Context, count int)
}

type scoringMetrics struct {
	*operations
	points   *prometheus.CounterVec
	records  *prometheus.CounterVec
	rejected prometheus.Counter
}

// NewScoringMetrics registers the scoring metric set on reg.
func NewScoringMetrics(reg prometheus.Registerer) ScoringMetrics {
	m := &scoringMetrics{
		operations: newOperations(reg, "scoring"),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "points_awarded_total",
			Help:      "Points awarded, by breakdown component.",
		}, []string{"component"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "record_bonuses_total",
			Help:      "Record bonuses awarded, by record type and status.",
		}, []string{"record_type", "status"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "rejected_results_total",
			Help:      "Race results rejected as malformed.",
		}),
	}
	reg.MustRegister(m.points, m.records, m.rejected)
	return m
}

func (m *scoringMetrics) RecordPointsAwarded(_ context.Context, component string, points int) {
	if points <= 0 {
		return
	}
	m.points.WithLabelValues(component).Add(float64(points))
}

func (m *scoringMetrics) RecordRecordBonus(_ context.Context, recordType, status string) {
	m.records.WithLabelValues(recordType, status).Inc()
}

func (m *scoringMetrics) RecordRejectedResults(_ context.Context, count int) {
	m.rejected.Add(float64(count))
}
