package lockqueue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// LockObserver is the slice of the lock service the worker drives.
type LockObserver interface {
	ObserveLock(ctx context.Context, competitionID uuid.UUID, scheduledFor time.Time) (results.OperationResult[bool, error], error)
}

// minSnooze bounds how soon an early job is retried.
const minSnooze = time.Second

// LockObservedWorker publishes competition.locked.v1 through the lock service.
type LockObservedWorker struct {
	river.WorkerDefaults[LockObservedJob]

	observer LockObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewLockObservedWorker creates the worker.
func NewLockObservedWorker(logger *slog.Logger, observer LockObserver) *LockObservedWorker {
	return &LockObservedWorker{observer: observer, logger: logger, now: time.Now}
}

// Work runs the observation. A job that fires before its instant is snoozed
// until the instant instead of failing.
func (w *LockObservedWorker) Work(ctx context.Context, job *river.Job[LockObservedJob]) error {
	args := job.Args
	ctx = attr.WithCorrelationID(ctx, args.CompetitionID.String())

	res, err := w.observer.ObserveLock(ctx, args.CompetitionID, args.LockAt)
	if err != nil {
		return err
	}
	if res.IsFailure() {
		if errors.Is(*res.Failure, lockservice.ErrNotYetLocked) {
			wait := args.LockAt.Sub(w.now())
			if wait < minSnooze {
				wait = minSnooze
			}
			w.logger.InfoContext(ctx, "Lock job ran early, snoozing",
				attr.CompetitionID(args.CompetitionID),
				attr.Duration("wait", wait),
			)
			return river.JobSnooze(wait)
		}
		return *res.Failure
	}

	w.logger.InfoContext(ctx, "Lock job finished",
		attr.CompetitionID(args.CompetitionID),
		attr.Bool("published", *res.Success),
		attr.Int64("job_id", job.ID),
	)
	return nil
}
