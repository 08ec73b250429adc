package lockservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	"github.com/Black-And-White-Club/marathon-draft/app/eventbus/eventbustest"
	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	lockdb "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/metrics"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
)

var (
	testNow         = time.Date(2027, 4, 18, 12, 0, 0, 0, time.UTC)
	testCompetition = uuid.MustParse("6a1f4c1e-90d5-4f0e-8d6e-3a3e5f0b2a11")
)

func newTestService(repo *FakeLockRepository, pub *eventbustest.FakePublisher, sched *FakeScheduler) *LockService {
	s := NewLockService(
		repo,
		pub,
		locktime.NewParser("UTC"),
		locktime.FixedClock(testNow),
		observability.NoOpLogger,
		metrics.Noop{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
	)
	if sched != nil {
		s.SetScheduler(sched)
	}
	return s
}

func storedLock(ts *time.Time, finalized bool, jobID *int64) func(context.Context, bun.IDB, uuid.UUID) (*lockdb.CompetitionLock, error) {
	return func(context.Context, bun.IDB, uuid.UUID) (*lockdb.CompetitionLock, error) {
		return &lockdb.CompetitionLock{
			CompetitionID:    testCompetition,
			LockTimestamp:    ts,
			ResultsFinalized: finalized,
			LockJobID:        jobID,
		}, nil
	}
}

func at(t time.Time) *time.Time { return &t }

func TestLockService_Status(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*FakeLockRepository)
		wantPhase lockdomain.Phase
		wantIn    *float64
		wantErr   bool
	}{
		{
			name:      "never configured is open",
			wantPhase: lockdomain.PhaseOpen,
		},
		{
			name:      "pending lock reports countdown",
			setup:     func(f *FakeLockRepository) { f.GetFunc = storedLock(at(testNow.Add(90*time.Second)), false, nil) },
			wantPhase: lockdomain.PhaseOpen,
			wantIn:    func() *float64 { v := 90.0; return &v }(),
		},
		{
			name:      "lock instant itself is locked",
			setup:     func(f *FakeLockRepository) { f.GetFunc = storedLock(at(testNow), false, nil) },
			wantPhase: lockdomain.PhaseLocked,
		},
		{
			name:      "finalized without timestamp is locked",
			setup:     func(f *FakeLockRepository) { f.GetFunc = storedLock(nil, true, nil) },
			wantPhase: lockdomain.PhaseLocked,
		},
		{
			name: "repository failure",
			setup: func(f *FakeLockRepository) {
				f.GetFunc = func(context.Context, bun.IDB, uuid.UUID) (*lockdb.CompetitionLock, error) {
					return nil, errors.New("connection reset")
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeLockRepository()
			if tt.setup != nil {
				tt.setup(repo)
			}
			s := newTestService(repo, &eventbustest.FakePublisher{}, nil)

			res, err := s.Status(context.Background(), testCompetition)
			if tt.wantErr {
				assert.ErrorContains(t, err, "connection reset")
				return
			}
			require.NoError(t, err)
			require.True(t, res.IsSuccess())
			assert.Equal(t, tt.wantPhase, res.Success.Phase)
			assert.Equal(t, tt.wantPhase == lockdomain.PhaseLocked, res.Success.IsLocked)
			assert.Equal(t, tt.wantIn, res.Success.LocksInSeconds)
		})
	}
}

func TestLockService_Evaluate(t *testing.T) {
	repo := NewFakeLockRepository()
	repo.GetFunc = storedLock(at(testNow.Add(time.Hour)), false, nil)
	s := newTestService(repo, &eventbustest.FakePublisher{}, nil)

	res, err := s.Evaluate(context.Background(), testCompetition, lockdomain.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, lockdomain.EditabilityState{IsEditable: true, AutosaveAllowed: true}, *res.Success)

	res, err = s.Evaluate(context.Background(), testCompetition, lockdomain.StatusSubmitted)
	require.NoError(t, err)
	assert.Equal(t, lockdomain.EditabilityState{}, *res.Success)

	res, err = s.Evaluate(context.Background(), testCompetition, "archived")
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.ErrorIs(t, *res.Failure, lockdomain.ErrUnknownStatus)
}

func TestLockService_ScheduleLock(t *testing.T) {
	previousJob := int64(41)

	tests := []struct {
		name        string
		input       string
		setup       func(*FakeLockRepository)
		scheduler   *FakeScheduler
		wantFailure error
		wantErr     bool
		verify      func(t *testing.T, res LockResult, repo *FakeLockRepository, sched *FakeScheduler)
	}{
		{
			name:      "stores timestamp and queues the job",
			input:     "2027-04-19T07:00:00Z",
			scheduler: &FakeScheduler{NextID: 7},
			verify: func(t *testing.T, res LockResult, repo *FakeLockRepository, sched *FakeScheduler) {
				want := time.Date(2027, 4, 19, 7, 0, 0, 0, time.UTC)
				require.NotNil(t, res.Success.LockTimestamp)
				assert.True(t, want.Equal(*res.Success.LockTimestamp))
				assert.Equal(t, lockdomain.PhaseOpen, res.Success.Phase)
				assert.Equal(t, []time.Time{want}, sched.Scheduled)
				assert.Empty(t, sched.Cancelled)
				assert.Equal(t, []string{"GetForUpdate", "SetLockTimestamp", "SetLockJobID"}, repo.Trace())
			},
		},
		{
			name:  "moving a pending lock cancels the superseded job",
			input: "2027-04-20T07:00:00Z",
			setup: func(f *FakeLockRepository) {
				f.GetFunc = storedLock(at(testNow.Add(time.Hour)), false, &previousJob)
			},
			scheduler: &FakeScheduler{},
			verify: func(t *testing.T, res LockResult, repo *FakeLockRepository, sched *FakeScheduler) {
				assert.Equal(t, []int64{previousJob}, sched.Cancelled)
			},
		},
		{
			name:  "cancel failure is tolerated",
			input: "2027-04-20T07:00:00Z",
			setup: func(f *FakeLockRepository) {
				f.GetFunc = storedLock(at(testNow.Add(time.Hour)), false, &previousJob)
			},
			scheduler: &FakeScheduler{CancelErr: errors.New("queue down")},
			verify: func(t *testing.T, res LockResult, repo *FakeLockRepository, sched *FakeScheduler) {
				assert.True(t, res.IsSuccess())
			},
		},
		{
			name:        "past input is a failure",
			input:       "2027-04-18T11:59:00Z",
			scheduler:   &FakeScheduler{},
			wantFailure: locktime.ErrLockInPast,
			verify: func(t *testing.T, res LockResult, repo *FakeLockRepository, sched *FakeScheduler) {
				assert.NotContains(t, repo.Trace(), "SetLockTimestamp")
				assert.Empty(t, sched.Scheduled)
			},
		},
		{
			name:        "unparseable input is a failure",
			input:       "banana",
			scheduler:   &FakeScheduler{},
			wantFailure: locktime.ErrUnrecognizedTime,
		},
		{
			name:  "already locked cannot move",
			input: "2027-04-20T07:00:00Z",
			setup: func(f *FakeLockRepository) {
				f.GetFunc = storedLock(at(testNow.Add(-time.Minute)), false, nil)
			},
			scheduler:   &FakeScheduler{},
			wantFailure: ErrAlreadyLocked,
		},
		{
			name:  "finalized cannot move",
			input: "2027-04-20T07:00:00Z",
			setup: func(f *FakeLockRepository) {
				f.GetFunc = storedLock(nil, true, nil)
			},
			scheduler:   &FakeScheduler{},
			wantFailure: ErrAlreadyLocked,
		},
		{
			name:      "queue failure is an infrastructure error",
			input:     "2027-04-19T07:00:00Z",
			scheduler: &FakeScheduler{ScheduleErr: errors.New("river unavailable")},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeLockRepository()
			if tt.setup != nil {
				tt.setup(repo)
			}
			s := newTestService(repo, &eventbustest.FakePublisher{}, tt.scheduler)

			res, err := s.ScheduleLock(context.Background(), testCompetition, tt.input, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantFailure != nil {
				require.True(t, res.IsFailure())
				assert.ErrorIs(t, *res.Failure, tt.wantFailure)
			} else {
				require.True(t, res.IsSuccess())
			}
			if tt.verify != nil {
				tt.verify(t, res, repo, tt.scheduler)
			}
		})
	}
}

func TestLockService_FinalizeResults(t *testing.T) {
	t.Run("first finalize announces", func(t *testing.T) {
		repo := NewFakeLockRepository()
		pub := &eventbustest.FakePublisher{}
		s := newTestService(repo, pub, nil)

		res, err := s.FinalizeResults(context.Background(), testCompetition)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.True(t, res.Success.ResultsFinalized)
		assert.Equal(t, lockdomain.PhaseLocked, res.Success.Phase)
		assert.Contains(t, repo.Trace(), "Finalize")

		require.Equal(t, []string{eventbus.CompetitionFinalizedV1}, pub.Topics())
		payload, err := eventbus.Decode[events.CompetitionFinalizedPayloadV1](pub.Messages()[0].Message)
		require.NoError(t, err)
		assert.Equal(t, testCompetition, payload.CompetitionID)
		assert.True(t, testNow.Equal(payload.FinalizedAt))
	})

	t.Run("publish failure still finalizes", func(t *testing.T) {
		repo := NewFakeLockRepository()
		pub := &eventbustest.FakePublisher{}
		pub.PublishFunc = func(string, ...*message.Message) error { return errors.New("nats down") }
		s := newTestService(repo, pub, nil)

		res, err := s.FinalizeResults(context.Background(), testCompetition)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.True(t, res.Success.ResultsFinalized)
		assert.Contains(t, repo.Trace(), "Finalize")
		assert.Empty(t, pub.Topics())
	})

	t.Run("repeat finalize is silent", func(t *testing.T) {
		repo := NewFakeLockRepository()
		repo.GetFunc = storedLock(nil, true, nil)
		pub := &eventbustest.FakePublisher{}
		s := newTestService(repo, pub, nil)

		res, err := s.FinalizeResults(context.Background(), testCompetition)
		require.NoError(t, err)
		assert.True(t, res.Success.ResultsFinalized)
		assert.NotContains(t, repo.Trace(), "Finalize")
		assert.Empty(t, pub.Topics())
	})
}

func TestLockService_ObserveLock(t *testing.T) {
	lockAt := testNow.Add(-time.Second)

	tests := []struct {
		name        string
		stored      *time.Time
		scheduled   time.Time
		publishErr  error
		want        bool
		wantFailure error
		wantErr     bool
		wantTopics  []string
	}{
		{
			name:       "current instant publishes",
			stored:     &lockAt,
			scheduled:  lockAt,
			want:       true,
			wantTopics: []string{eventbus.CompetitionLockedV1},
		},
		{
			name:      "moved instant is stale",
			stored:    at(lockAt.Add(time.Hour)),
			scheduled: lockAt,
		},
		{
			name:      "cleared instant is stale",
			scheduled: lockAt,
		},
		{
			name:        "early run is a failure",
			stored:      at(testNow.Add(time.Minute)),
			scheduled:   testNow.Add(time.Minute),
			wantFailure: ErrNotYetLocked,
		},
		{
			name:       "publish failure surfaces for retry",
			stored:     &lockAt,
			scheduled:  lockAt,
			publishErr: errors.New("nats down"),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeLockRepository()
			repo.GetFunc = storedLock(tt.stored, false, nil)
			pub := &eventbustest.FakePublisher{}
			if tt.publishErr != nil {
				pub.PublishFunc = func(string, ...*message.Message) error { return tt.publishErr }
			}
			s := newTestService(repo, pub, nil)

			res, err := s.ObserveLock(context.Background(), testCompetition, tt.scheduled)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.publishErr)
				return
			}
			require.NoError(t, err)
			if tt.wantFailure != nil {
				require.True(t, res.IsFailure())
				assert.ErrorIs(t, *res.Failure, tt.wantFailure)
				return
			}
			require.True(t, res.IsSuccess())
			assert.Equal(t, tt.want, *res.Success)
			assert.Equal(t, tt.wantTopics, nilIfEmpty(pub.Topics()))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
