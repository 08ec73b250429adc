package rosterdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for competition, price list and roster
// persistence. All methods accept an optional bun.IDB; when nil the
// repository's default connection is used.
type Repository interface {
	CreateCompetition(ctx context.Context, db bun.IDB, competition *Competition) error
	GetCompetition(ctx context.Context, db bun.IDB, id uuid.UUID) (*Competition, error)

	UpsertCompetitors(ctx context.Context, db bun.IDB, competitors []Competitor) error
	ListCompetitors(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]Competitor, error)

	CreateRoster(ctx context.Context, db bun.IDB, roster *Roster) error
	GetRoster(ctx context.Context, db bun.IDB, id uuid.UUID) (*Roster, error)
	// GetRosterForUpdate locks the row for the rest of the transaction.
	GetRosterForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Roster, error)
	UpdateRoster(ctx context.Context, db bun.IDB, roster *Roster) error
	ListRostersByStatus(ctx context.Context, db bun.IDB, competitionID uuid.UUID, statuses []string) ([]Roster, error)
}
