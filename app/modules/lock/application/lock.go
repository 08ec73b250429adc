package lockservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	lockdb "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// LockConfig loads the stored configuration of a competition.
func (s *LockService) LockConfig(ctx context.Context, competitionID uuid.UUID) (lockdomain.LockConfig, error) {
	row, err := s.loadLock(ctx, nil, competitionID, false)
	if err != nil {
		return lockdomain.LockConfig{}, err
	}
	return row.Config(), nil
}

func (s *LockService) loadLock(ctx context.Context, db bun.IDB, competitionID uuid.UUID, forUpdate bool) (*lockdb.CompetitionLock, error) {
	var (
		row *lockdb.CompetitionLock
		err error
	)
	if forUpdate {
		row, err = s.repo.GetForUpdate(ctx, db, competitionID)
	} else {
		row, err = s.repo.Get(ctx, db, competitionID)
	}
	if errors.Is(err, lockdb.ErrNotFound) {
		return &lockdb.CompetitionLock{CompetitionID: competitionID}, nil
	}
	return row, err
}

func (s *LockService) status(competitionID uuid.UUID, cfg lockdomain.LockConfig, now time.Time) LockStatus {
	st := LockStatus{
		CompetitionID:    competitionID,
		LockTimestamp:    cfg.LockTimestamp,
		ResultsFinalized: cfg.ResultsFinalized,
		Phase:            lockdomain.PhaseAt(cfg, now),
		IsLocked:         lockdomain.IsLocked(cfg, now),
		EvaluatedAt:      now,
	}
	if d, ok := lockdomain.Until(cfg, now); ok {
		secs := d.Seconds()
		st.LocksInSeconds = &secs
	}
	return st
}

// Status reports the lock configuration and the phase it implies right now.
func (s *LockService) Status(ctx context.Context, competitionID uuid.UUID) (LockResult, error) {
	return withTelemetry(s, ctx, "LockStatus", competitionID, func(ctx context.Context) (LockResult, error) {
		cfg, err := s.LockConfig(ctx, competitionID)
		if err != nil {
			return LockResult{}, err
		}
		now := s.clock.Now()
		st := s.status(competitionID, cfg, now)
		s.metrics.RecordEvaluation(ctx, st.IsLocked)
		return results.SuccessResult[LockStatus, error](st), nil
	})
}

// Evaluate derives the editability of a roster in the given status.
func (s *LockService) Evaluate(ctx context.Context, competitionID uuid.UUID, status lockdomain.SubmissionStatus) (results.OperationResult[lockdomain.EditabilityState, error], error) {
	return withTelemetry(s, ctx, "EvaluateEditability", competitionID, func(ctx context.Context) (results.OperationResult[lockdomain.EditabilityState, error], error) {
		if !status.Valid() {
			return results.FailureResult[lockdomain.EditabilityState, error](lockdomain.ErrUnknownStatus), nil
		}
		cfg, err := s.LockConfig(ctx, competitionID)
		if err != nil {
			return results.OperationResult[lockdomain.EditabilityState, error]{}, err
		}
		state := lockdomain.Evaluate(cfg, status, s.clock.Now())
		s.metrics.RecordEvaluation(ctx, state.IsLocked)
		return results.SuccessResult[lockdomain.EditabilityState, error](state), nil
	})
}

// ScheduleLock parses input as the new lock instant, stores it and queues the
// job that announces the lock. A lock that has already passed cannot move.
func (s *LockService) ScheduleLock(ctx context.Context, competitionID uuid.UUID, input, timezone string) (LockResult, error) {
	return withTelemetry(s, ctx, "ScheduleLock", competitionID, func(ctx context.Context) (LockResult, error) {
		var previousJob *int64

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (LockResult, error) {
			row, err := s.loadLock(ctx, db, competitionID, true)
			if err != nil {
				return LockResult{}, err
			}
			now := s.clock.Now()
			if lockdomain.IsLocked(row.Config(), now) {
				return results.FailureResult[LockStatus, error](ErrAlreadyLocked), nil
			}

			at, err := s.parser.Parse(input, timezone, s.clock)
			if err != nil {
				return results.FailureResult[LockStatus, error](err), nil
			}

			if err := s.repo.SetLockTimestamp(ctx, db, competitionID, at); err != nil {
				return LockResult{}, err
			}
			previousJob = row.LockJobID

			if s.scheduler != nil {
				jobID, err := s.scheduler.ScheduleLockObservation(ctx, competitionID, at)
				if err != nil {
					return LockResult{}, err
				}
				if err := s.repo.SetLockJobID(ctx, db, competitionID, jobID); err != nil {
					return LockResult{}, err
				}
			}

			cfg := lockdomain.LockConfig{LockTimestamp: &at, ResultsFinalized: row.ResultsFinalized}
			return results.SuccessResult[LockStatus, error](s.status(competitionID, cfg, now)), nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		if previousJob != nil && s.scheduler != nil {
			if err := s.scheduler.CancelJob(ctx, *previousJob); err != nil {
				// the stale job re-checks the timestamp and exits
				s.logger.WarnContext(ctx, "Failed to cancel superseded lock job",
					attr.CompetitionID(competitionID),
					attr.Int64("job_id", *previousJob),
					attr.Error(err),
				)
			}
		}

		s.logger.InfoContext(ctx, "Lock scheduled",
			attr.CompetitionID(competitionID),
			attr.Time("lock_timestamp", *result.Success.LockTimestamp),
			attr.ExtractCorrelationID(ctx),
		)
		return result, nil
	})
}

// FinalizeResults sets the finalized flag and announces it. Finalizing twice
// succeeds without a second announcement.
func (s *LockService) FinalizeResults(ctx context.Context, competitionID uuid.UUID) (LockResult, error) {
	return withTelemetry(s, ctx, "FinalizeResults", competitionID, func(ctx context.Context) (LockResult, error) {
		var announce bool
		now := s.clock.Now()

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (LockResult, error) {
			row, err := s.loadLock(ctx, db, competitionID, true)
			if err != nil {
				return LockResult{}, err
			}
			cfg := row.Config()
			if !cfg.ResultsFinalized {
				if err := s.repo.Finalize(ctx, db, competitionID, now); err != nil {
					return LockResult{}, err
				}
				cfg.ResultsFinalized = true
				announce = true
			}
			return results.SuccessResult[LockStatus, error](s.status(competitionID, cfg, now)), nil
		})
		if err != nil || !announce {
			return result, err
		}

		// Best effort: the flag is already committed.
		payload := events.CompetitionFinalizedPayloadV1{CompetitionID: competitionID, FinalizedAt: now}
		if err := eventbus.Publish(ctx, s.publisher, eventbus.CompetitionFinalizedV1, payload); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish competition finalized",
				attr.CompetitionID(competitionID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
		}
		return result, nil
	})
}

// ObserveLock announces the lock if scheduledFor is still the configured lock
// instant and that instant has passed. Superseded instants are ignored.
func (s *LockService) ObserveLock(ctx context.Context, competitionID uuid.UUID, scheduledFor time.Time) (results.OperationResult[bool, error], error) {
	return withTelemetry(s, ctx, "ObserveLock", competitionID, func(ctx context.Context) (results.OperationResult[bool, error], error) {
		cfg, err := s.LockConfig(ctx, competitionID)
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}

		if cfg.LockTimestamp == nil || !cfg.LockTimestamp.Equal(scheduledFor) {
			s.metrics.RecordLockJob(ctx, "stale")
			s.logger.InfoContext(ctx, "Ignoring superseded lock job",
				attr.CompetitionID(competitionID),
				attr.Time("scheduled_for", scheduledFor),
			)
			return results.SuccessResult[bool, error](false), nil
		}

		now := s.clock.Now()
		if !lockdomain.IsLocked(cfg, now) {
			s.metrics.RecordLockJob(ctx, "early")
			return results.FailureResult[bool, error](ErrNotYetLocked), nil
		}

		payload := events.CompetitionLockedPayloadV1{CompetitionID: competitionID, LockedAt: *cfg.LockTimestamp}
		if err := eventbus.Publish(ctx, s.publisher, eventbus.CompetitionLockedV1, payload); err != nil {
			s.metrics.RecordLockJob(ctx, "publish_failed")
			return results.OperationResult[bool, error]{}, err
		}
		s.metrics.RecordLockJob(ctx, "published")
		return results.SuccessResult[bool, error](true), nil
	})
}
