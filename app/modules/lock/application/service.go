package lockservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	lockdb "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/metrics"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// LockService implements the Service interface.
type LockService struct {
	repo      lockdb.Repository
	publisher message.Publisher
	scheduler LockScheduler
	parser    *locktime.Parser
	clock     locktime.Clock
	logger    *slog.Logger
	metrics   metrics.LockMetrics
	tracer    trace.Tracer
	db        *bun.DB
}

// NewLockService creates a new LockService. The scheduler may be set later
// with SetScheduler because the queue worker itself depends on the service.
func NewLockService(
	repo lockdb.Repository,
	publisher message.Publisher,
	parser *locktime.Parser,
	clock locktime.Clock,
	logger *slog.Logger,
	metrics metrics.LockMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *LockService {
	return &LockService{
		repo:      repo,
		publisher: publisher,
		parser:    parser,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
	}
}

// SetScheduler wires the lock queue.
func (s *LockService) SetScheduler(scheduler LockScheduler) {
	s.scheduler = scheduler
}

// Now reads the injected clock.
func (s *LockService) Now() time.Time {
	return s.clock.Now()
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *LockService,
	ctx context.Context,
	operationName string,
	competitionID uuid.UUID,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("competition_id", competitionID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.CompetitionID(competitionID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.CompetitionID(competitionID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.CompetitionID(competitionID),
			attr.Any("failure_payload", *result.Failure),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
	}

	if result.IsSuccess() {
		s.metrics.RecordOperationSuccess(ctx, operationName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *LockService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
