package metrics

import (
	"context"
	"time"
)

// Noop satisfies every module metrics interface and records nothing.
type Noop struct{}

var (
	_ RosterMetrics  = Noop{}
	_ LockMetrics    = Noop{}
	_ ScoringMetrics = Noop{}
)

func (Noop) RecordOperationAttempt(context.Context, string)                 {}
func (Noop) RecordOperationSuccess(context.Context, string)                 {}
func (Noop) RecordOperationFailure(context.Context, string)                 {}
func (Noop) RecordOperationDuration(context.Context, string, time.Duration) {}
func (Noop) RecordValidation(context.Context, bool)                         {}
func (Noop) RecordStateConflict(context.Context, string)                    {}
func (Noop) RecordEvaluation(context.Context, bool)                         {}
func (Noop) RecordLockJob(context.Context, string)                          {}
func (Noop) RecordPointsAwarded(context.Context, string, int)               {}
func (Noop) RecordRecordBonus(context.Context, string, string)              {}
func (Noop) RecordRejectedResults(context.Context, int)                     {}
