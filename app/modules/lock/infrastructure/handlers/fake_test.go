package lockhandlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// FakeService is a programmable stub for lockservice.Service.
type FakeService struct {
	StatusFunc       func(ctx context.Context, id uuid.UUID) (lockservice.LockResult, error)
	ScheduleLockFunc func(ctx context.Context, id uuid.UUID, input, timezone string) (lockservice.LockResult, error)
	FinalizeFunc     func(ctx context.Context, id uuid.UUID) (lockservice.LockResult, error)
}

var _ lockservice.Service = (*FakeService)(nil)

func (f *FakeService) LockConfig(context.Context, uuid.UUID) (lockdomain.LockConfig, error) {
	return lockdomain.LockConfig{}, nil
}

func (f *FakeService) Now() time.Time { return time.Now() }

func (f *FakeService) Status(ctx context.Context, id uuid.UUID) (lockservice.LockResult, error) {
	if f.StatusFunc != nil {
		return f.StatusFunc(ctx, id)
	}
	return results.SuccessResult[lockservice.LockStatus, error](lockservice.LockStatus{CompetitionID: id}), nil
}

func (f *FakeService) Evaluate(context.Context, uuid.UUID, lockdomain.SubmissionStatus) (results.OperationResult[lockdomain.EditabilityState, error], error) {
	return results.SuccessResult[lockdomain.EditabilityState, error](lockdomain.EditabilityState{}), nil
}

func (f *FakeService) ScheduleLock(ctx context.Context, id uuid.UUID, input, timezone string) (lockservice.LockResult, error) {
	if f.ScheduleLockFunc != nil {
		return f.ScheduleLockFunc(ctx, id, input, timezone)
	}
	return results.SuccessResult[lockservice.LockStatus, error](lockservice.LockStatus{CompetitionID: id}), nil
}

func (f *FakeService) FinalizeResults(ctx context.Context, id uuid.UUID) (lockservice.LockResult, error) {
	if f.FinalizeFunc != nil {
		return f.FinalizeFunc(ctx, id)
	}
	return results.SuccessResult[lockservice.LockStatus, error](lockservice.LockStatus{CompetitionID: id, ResultsFinalized: true}), nil
}

func (f *FakeService) ObserveLock(context.Context, uuid.UUID, time.Time) (results.OperationResult[bool, error], error) {
	return results.SuccessResult[bool, error](false), nil
}
