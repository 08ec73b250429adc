package scoringdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists race results, score breakdowns and record
// ratifications. A nil bun.IDB selects the repository's default connection.
type Repository interface {
	UpsertResults(ctx context.Context, db bun.IDB, results []RaceResult) error
	ListResults(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]RaceResult, error)

	ReplaceBreakdowns(ctx context.Context, db bun.IDB, breakdowns []PointsBreakdown) error
	GetBreakdown(ctx context.Context, db bun.IDB, competitionID uuid.UUID, competitorID string) (*PointsBreakdown, error)
	ListBreakdowns(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]PointsBreakdown, error)

	AddRecordConfirmation(ctx context.Context, db bun.IDB, confirmation *RecordConfirmation) error
	ListRecordConfirmations(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]RecordConfirmation, error)
}
