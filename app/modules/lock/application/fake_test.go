package lockservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	lockdb "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories"
)

// FakeLockRepository is a programmable stub for lockdb.Repository.
type FakeLockRepository struct {
	trace []string

	GetFunc              func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*lockdb.CompetitionLock, error)
	SetLockTimestampFunc func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error
	SetLockJobIDFunc     func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, jobID int64) error
	FinalizeFunc         func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error
}

func NewFakeLockRepository() *FakeLockRepository {
	return &FakeLockRepository{trace: []string{}}
}

func (f *FakeLockRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLockRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeLockRepository) Get(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*lockdb.CompetitionLock, error) {
	f.record("Get")
	if f.GetFunc != nil {
		return f.GetFunc(ctx, db, competitionID)
	}
	return nil, lockdb.ErrNotFound
}

func (f *FakeLockRepository) GetForUpdate(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*lockdb.CompetitionLock, error) {
	f.record("GetForUpdate")
	if f.GetFunc != nil {
		return f.GetFunc(ctx, db, competitionID)
	}
	return nil, lockdb.ErrNotFound
}

func (f *FakeLockRepository) SetLockTimestamp(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error {
	f.record("SetLockTimestamp")
	if f.SetLockTimestampFunc != nil {
		return f.SetLockTimestampFunc(ctx, db, competitionID, at)
	}
	return nil
}

func (f *FakeLockRepository) SetLockJobID(ctx context.Context, db bun.IDB, competitionID uuid.UUID, jobID int64) error {
	f.record("SetLockJobID")
	if f.SetLockJobIDFunc != nil {
		return f.SetLockJobIDFunc(ctx, db, competitionID, jobID)
	}
	return nil
}

func (f *FakeLockRepository) Finalize(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error {
	f.record("Finalize")
	if f.FinalizeFunc != nil {
		return f.FinalizeFunc(ctx, db, competitionID, at)
	}
	return nil
}

var _ lockdb.Repository = (*FakeLockRepository)(nil)

// FakeScheduler records scheduled and cancelled jobs.
type FakeScheduler struct {
	Scheduled []time.Time
	Cancelled []int64
	NextID    int64

	ScheduleErr error
	CancelErr   error
}

func (f *FakeScheduler) ScheduleLockObservation(_ context.Context, _ uuid.UUID, at time.Time) (int64, error) {
	if f.ScheduleErr != nil {
		return 0, f.ScheduleErr
	}
	f.Scheduled = append(f.Scheduled, at)
	f.NextID++
	return f.NextID, nil
}

func (f *FakeScheduler) CancelJob(_ context.Context, jobID int64) error {
	f.Cancelled = append(f.Cancelled, jobID)
	return f.CancelErr
}
