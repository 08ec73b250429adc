package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	lockhandlers "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/handlers"
	lockqueue "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/queue"
	lockdb "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/config"
)

// Module represents the lock module.
type Module struct {
	LockService *lockservice.LockService
	Queue       lockqueue.QueueService
	Handlers    *lockhandlers.LockHandlers
	obs         *observability.Provider
	cancelFunc  context.CancelFunc
}

// NewLockModule wires the lock service to its repository, the River queue
// and the HTTP handlers. The queue is migrated but not started until Run.
func NewLockModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Provider,
	db *bun.DB,
	publisher message.Publisher,
	clock locktime.Clock,
) (*Module, error) {
	logger := obs.Logger.With("module", "lock")
	logger.InfoContext(ctx, "lock.NewLockModule called")

	parser := locktime.NewParser(cfg.Game.DefaultTimezone)
	service := lockservice.NewLockService(
		lockdb.NewRepository(db),
		publisher,
		parser,
		clock,
		logger,
		obs.Registry.Lock,
		obs.Tracer,
		db,
	)

	queue, err := lockqueue.NewService(ctx, logger, cfg.Postgres.DSN, cfg.Game.LockQueueWorkers, obs.Registry.Lock, service)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock queue: %w", err)
	}
	if err := queue.Migrate(ctx); err != nil {
		_ = queue.Stop(ctx)
		return nil, err
	}
	service.SetScheduler(queue)

	return &Module{
		LockService: service,
		Queue:       queue,
		Handlers:    lockhandlers.NewLockHandlers(service, logger, obs.Tracer),
		obs:         obs,
	}, nil
}

// Routes mounts the lock endpoints.
func (m *Module) Routes(r chi.Router) {
	m.Handlers.Routes(r)
}

// Run starts the lock queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.obs.Logger
	logger.InfoContext(ctx, "Starting lock module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	// River stops fetching when its start context ends; Close owns shutdown.
	if err := m.Queue.Start(context.WithoutCancel(ctx)); err != nil {
		logger.ErrorContext(ctx, "Failed to start lock queue", "error", err)
		return
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Lock module goroutine stopped")
}

// Close stops the queue, letting in-flight lock jobs finish.
func (m *Module) Close(ctx context.Context) error {
	logger := m.obs.Logger
	logger.Info("Stopping lock module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if err := m.Queue.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop lock queue: %w", err)
	}

	logger.Info("Lock module stopped")
	return nil
}
