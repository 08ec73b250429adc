package rosterservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/metrics"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// RosterService implements the Service interface.
type RosterService struct {
	repo             rosterdb.Repository
	locks            LockReader
	publisher        message.Publisher
	logger           *slog.Logger
	metrics          metrics.RosterMetrics
	tracer           trace.Tracer
	db               *bun.DB
	defaultSalaryCap int64
}

// NewRosterService creates a new RosterService.
func NewRosterService(
	repo rosterdb.Repository,
	locks LockReader,
	publisher message.Publisher,
	logger *slog.Logger,
	metrics metrics.RosterMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	defaultSalaryCap int64,
) *RosterService {
	return &RosterService{
		repo:             repo,
		locks:            locks,
		publisher:        publisher,
		logger:           logger,
		metrics:          metrics,
		tracer:           tracer,
		db:               db,
		defaultSalaryCap: defaultSalaryCap,
	}
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. subject identifies the competition or roster being worked on.
func withTelemetry[S any, F any](
	s *RosterService,
	ctx context.Context,
	operationName string,
	subject slog.Attr,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String(subject.Key, subject.Value.String()),
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
				subject,
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
			subject,
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
			subject,
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
	s *RosterService,
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
