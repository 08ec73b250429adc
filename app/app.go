package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/sync/errgroup"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	"github.com/Black-And-White-Club/marathon-draft/app/httpapi"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/roster"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/scoring"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/config"
)

// App owns the process-wide connections and the three modules.
type App struct {
	Config          *config.Config
	Observability   *observability.Provider
	DB              *bun.DB
	EventBus        eventbus.EventBus
	WatermillRouter *message.Router

	LockModule    *lock.Module
	RosterModule  *roster.Module
	ScoringModule *scoring.Module

	Server *httpapi.Server
}

// OpenDB opens a bun handle over pgdriver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// NewApp connects to Postgres and NATS and wires the modules. Nothing runs
// until Run.
func NewApp(ctx context.Context, cfg *config.Config, obs *observability.Provider) (*App, error) {
	logger := obs.Logger

	db := OpenDB(cfg.Postgres.DSN)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{
		URL:           cfg.NATS.URL,
		NKeySeed:      cfg.NATS.NKeySeed,
		DurablePrefix: cfg.NATS.DurablePrefix,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	a := &App{Config: cfg, Observability: obs, DB: db, EventBus: bus}
	if err := a.initModules(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) initModules(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(a.Observability.Logger))
	if err != nil {
		return fmt.Errorf("failed to create watermill router: %w", err)
	}
	a.WatermillRouter = router

	clock := locktime.RealClock{}

	a.LockModule, err = lock.NewLockModule(ctx, a.Config, a.Observability, a.DB, a.EventBus, clock)
	if err != nil {
		return fmt.Errorf("failed to initialize lock module: %w", err)
	}

	a.RosterModule = roster.NewRosterModule(ctx, a.Config, a.Observability, a.DB, a.EventBus, a.LockModule.LockService)

	a.ScoringModule, err = scoring.NewScoringModule(ctx, a.Config, a.Observability, a.DB, a.EventBus, router, a.RosterModule.RosterService, clock)
	if err != nil {
		return fmt.Errorf("failed to initialize scoring module: %w", err)
	}

	api := httpapi.NewRouter(httpapi.Config{
		Address:        a.Config.HTTP.Address,
		AllowedOrigins: a.Config.HTTP.AllowedOrigins,
		RateLimit:      a.Config.HTTP.RateLimit,
		RateBurst:      a.Config.HTTP.RateBurst,
	})
	a.RosterModule.Routes(api)
	a.LockModule.Routes(api)
	a.ScoringModule.Routes(api)

	a.Server = httpapi.NewServer(a.Config.HTTP.Address, api, a.Config.Observability.MetricsAddress, a.Observability.Registry.Prometheus, a.Observability.Logger)
	return nil
}

// Run starts the lock queue, the event router and the HTTP server, and
// blocks until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger

	g, gctx := errgroup.WithContext(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go a.LockModule.Run(gctx, &wg)

	g.Go(func() error {
		if err := a.WatermillRouter.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watermill router: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Server.Run(gctx)
	})

	err := g.Wait()
	logger.InfoContext(ctx, "Shutting down", attr.Error(err))
	wg.Wait()
	return err
}

// Close releases everything NewApp opened. Safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.LockModule != nil {
		errs = append(errs, a.LockModule.Close(ctx))
	}
	if a.WatermillRouter != nil {
		errs = append(errs, a.WatermillRouter.Close())
	}
	if a.EventBus != nil {
		errs = append(errs, a.EventBus.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
