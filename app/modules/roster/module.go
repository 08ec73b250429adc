package roster

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	rosterservice "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/application"
	rosterhandlers "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/handlers"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/config"
)

// Module represents the roster module.
type Module struct {
	RosterService *rosterservice.RosterService
	Handlers      *rosterhandlers.RosterHandlers
}

// NewRosterModule wires the roster service. locks is usually the lock
// module's service.
func NewRosterModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Provider,
	db *bun.DB,
	publisher message.Publisher,
	locks rosterservice.LockReader,
) *Module {
	logger := obs.Logger.With("module", "roster")
	logger.InfoContext(ctx, "roster.NewRosterModule called")

	service := rosterservice.NewRosterService(
		rosterdb.NewRepository(db),
		locks,
		publisher,
		logger,
		obs.Registry.Roster,
		obs.Tracer,
		db,
		cfg.Game.SalaryCap,
	)

	return &Module{
		RosterService: service,
		Handlers:      rosterhandlers.NewRosterHandlers(service, logger),
	}
}

// Routes mounts the roster endpoints.
func (m *Module) Routes(r chi.Router) {
	m.Handlers.Routes(r)
}
