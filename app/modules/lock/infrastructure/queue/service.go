package lockqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"

	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/metrics"
)

// QueueName is the dedicated River queue for lock jobs.
const QueueName = "competition_lock"

// QueueService is the contract the rest of the process sees.
type QueueService interface {
	lockservice.LockScheduler
	GetJob(ctx context.Context, jobID int64) (*JobInfo, error)
	Migrate(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service schedules lock observations on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

// NewService connects a pgx pool and builds the River client with the lock
// worker registered.
func NewService(ctx context.Context, logger *slog.Logger, dsn string, maxWorkers int, m metrics.OperationMetrics, observer LockObserver) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
		attr.String("queue", QueueName),
	)
	m.RecordOperationAttempt(ctx, "queue_initialize")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		m.RecordOperationFailure(ctx, "queue_initialize")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		m.RecordOperationFailure(ctx, "queue_initialize")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "queue_initialize")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewLockObservedWorker(ctxLogger, observer))

	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "queue_initialize")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	m.RecordOperationSuccess(ctx, "queue_initialize")
	ctxLogger.Info("Lock queue service initialized")
	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: m}, nil
}

// Migrate brings River's own tables up to date.
func (s *Service) Migrate(ctx context.Context) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(s.pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	s.logger.Info("River schema migrated", attr.Int("versions_applied", len(res.Versions)))
	return nil
}

// Start starts processing jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Lock queue service started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Lock queue service stopped")
	return nil
}

// ScheduleLockObservation queues a LockObservedJob for at.
func (s *Service) ScheduleLockObservation(ctx context.Context, competitionID uuid.UUID, at time.Time) (int64, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_lock_job")
	defer func() { s.metrics.RecordOperationDuration(ctx, "schedule_lock_job", time.Since(start)) }()

	res, err := s.client.Insert(ctx, LockObservedJob{CompetitionID: competitionID, LockAt: at.UTC()}, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_lock_job")
		return 0, fmt.Errorf("failed to schedule lock job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_lock_job")
	s.logger.InfoContext(ctx, "Lock job scheduled",
		attr.CompetitionID(competitionID),
		attr.Time("lock_at", at),
		attr.Int64("job_id", res.Job.ID),
	)
	return res.Job.ID, nil
}

// CancelJob cancels a queued job. Jobs that already finished are left alone.
func (s *Service) CancelJob(ctx context.Context, jobID int64) error {
	if _, err := s.client.JobCancel(ctx, jobID); err != nil {
		if errors.Is(err, rivertype.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to cancel job %d: %w", jobID, err)
	}
	return nil
}

// GetJob reports the state of a queued job.
func (s *Service) GetJob(ctx context.Context, jobID int64) (*JobInfo, error) {
	row, err := s.client.JobGet(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", jobID, err)
	}
	return jobInfo(row), nil
}

func jobInfo(row *rivertype.JobRow) *JobInfo {
	return &JobInfo{
		ID:          row.ID,
		Kind:        row.Kind,
		State:       string(row.State),
		ScheduledAt: row.ScheduledAt,
		Attempt:     row.Attempt,
		MaxAttempts: row.MaxAttempts,
	}
}
