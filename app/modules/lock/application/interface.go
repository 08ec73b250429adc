package lockservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// Service exposes competition lock configuration and the editability rules
// derived from it.
type Service interface {
	// LockConfig returns the stored configuration. A competition that never had
	// a lock configured yields the zero config.
	LockConfig(ctx context.Context, competitionID uuid.UUID) (lockdomain.LockConfig, error)
	Now() time.Time

	Status(ctx context.Context, competitionID uuid.UUID) (LockResult, error)
	Evaluate(ctx context.Context, competitionID uuid.UUID, status lockdomain.SubmissionStatus) (results.OperationResult[lockdomain.EditabilityState, error], error)
	ScheduleLock(ctx context.Context, competitionID uuid.UUID, input, timezone string) (LockResult, error)
	FinalizeResults(ctx context.Context, competitionID uuid.UUID) (LockResult, error)

	// ObserveLock runs when a scheduled lock instant arrives. It reports
	// whether competition.locked.v1 was published.
	ObserveLock(ctx context.Context, competitionID uuid.UUID, scheduledFor time.Time) (results.OperationResult[bool, error], error)
}

// LockScheduler queues the job that fires at a lock instant.
type LockScheduler interface {
	ScheduleLockObservation(ctx context.Context, competitionID uuid.UUID, at time.Time) (int64, error)
	CancelJob(ctx context.Context, jobID int64) error
}

// LockStatus is the read model of a competition's lock.
type LockStatus struct {
	CompetitionID    uuid.UUID        `json:"competition_id"`
	LockTimestamp    *time.Time       `json:"lock_timestamp"`
	ResultsFinalized bool             `json:"results_finalized"`
	Phase            lockdomain.Phase `json:"phase"`
	IsLocked         bool             `json:"is_locked"`
	// LocksInSeconds is set while a future lock is pending.
	LocksInSeconds *float64  `json:"locks_in_seconds,omitempty"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}

// LockResult is the outcome of operations returning a LockStatus.
type LockResult = results.OperationResult[LockStatus, error]
