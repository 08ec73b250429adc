package scoring

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	scoringservice "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/application"
	scoringhandlers "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/handlers"
	scoringdb "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/repositories"
	scoringrouter "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/router"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/config"
)

// Module represents the scoring module.
type Module struct {
	ScoringService *scoringservice.ScoringService
	Handlers       *scoringhandlers.ScoringHandlers
	Router         *scoringrouter.ScoringRouter
}

// NewScoringModule loads the scoring policy, wires the service and registers
// the results consumer on router. The router is run by the caller.
func NewScoringModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Provider,
	db *bun.DB,
	bus eventbus.EventBus,
	router *message.Router,
	rosters scoringservice.RosterSource,
	clock locktime.Clock,
) (*Module, error) {
	logger := obs.Logger.With("module", "scoring")
	logger.InfoContext(ctx, "scoring.NewScoringModule called")

	policy, err := scoringservice.LoadPolicy(cfg.Game.ScoringPolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring policy %s: %w", cfg.Game.ScoringPolicyFile, err)
	}

	service := scoringservice.NewScoringService(
		scoringdb.NewRepository(db),
		rosters,
		policy,
		bus,
		logger,
		obs.Registry.Scoring,
		obs.Tracer,
		db,
		clock,
	)
	handlers := scoringhandlers.NewScoringHandlers(service, logger, obs.Tracer)

	scoringRouter := scoringrouter.NewScoringRouter(logger, router, bus, bus, obs.Tracer, obs.Registry.Prometheus)
	if err := scoringRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure scoring router: %w", err)
	}

	return &Module{
		ScoringService: service,
		Handlers:       handlers,
		Router:         scoringRouter,
	}, nil
}

// Routes mounts the scoring endpoints.
func (m *Module) Routes(r chi.Router) {
	m.Handlers.Routes(r)
}
