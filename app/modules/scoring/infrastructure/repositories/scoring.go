package scoringdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a competitor has no stored breakdown.
var ErrNotFound = errors.New("points breakdown not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new scoring repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// UpsertResults stores the latest result per competitor.
func (r *Impl) UpsertResults(ctx context.Context, db bun.IDB, results []RaceResult) error {
	if len(results) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(&results).
		On("CONFLICT (competition_id, competitor_id) DO UPDATE").
		Set("placement = EXCLUDED.placement").
		Set("finish_time_seconds = EXCLUDED.finish_time_seconds").
		Set("split_times = EXCLUDED.split_times").
		Set("reported_at = EXCLUDED.reported_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert race results: %w", err)
	}
	return nil
}

// ListResults returns every stored result of the competition.
func (r *Impl) ListResults(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]RaceResult, error) {
	db = r.resolveDB(db)
	var results []RaceResult
	err := db.NewSelect().
		Model(&results).
		Where("competition_id = ?", competitionID).
		OrderExpr("competitor_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list race results: %w", err)
	}
	return results, nil
}

// ReplaceBreakdowns overwrites each competitor's breakdown in full.
func (r *Impl) ReplaceBreakdowns(ctx context.Context, db bun.IDB, breakdowns []PointsBreakdown) error {
	if len(breakdowns) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(&breakdowns).
		On("CONFLICT (competition_id, competitor_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("placement_points = EXCLUDED.placement_points").
		Set("time_gap_points = EXCLUDED.time_gap_points").
		Set("performance_bonuses = EXCLUDED.performance_bonuses").
		Set("record_bonuses = EXCLUDED.record_bonuses").
		Set("total_points = EXCLUDED.total_points").
		Set("scored_at = EXCLUDED.scored_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to replace points breakdowns: %w", err)
	}
	return nil
}

// GetBreakdown retrieves one competitor's breakdown.
func (r *Impl) GetBreakdown(ctx context.Context, db bun.IDB, competitionID uuid.UUID, competitorID string) (*PointsBreakdown, error) {
	db = r.resolveDB(db)
	b := new(PointsBreakdown)
	err := db.NewSelect().
		Model(b).
		Where("competition_id = ?", competitionID).
		Where("competitor_id = ?", competitorID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get points breakdown: %w", err)
	}
	return b, nil
}

// ListBreakdowns returns every breakdown of the competition, best first.
func (r *Impl) ListBreakdowns(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]PointsBreakdown, error) {
	db = r.resolveDB(db)
	var breakdowns []PointsBreakdown
	err := db.NewSelect().
		Model(&breakdowns).
		Where("competition_id = ?", competitionID).
		OrderExpr("total_points DESC, competitor_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list points breakdowns: %w", err)
	}
	return breakdowns, nil
}

// AddRecordConfirmation stores a ratification. Repeats are ignored.
func (r *Impl) AddRecordConfirmation(ctx context.Context, db bun.IDB, confirmation *RecordConfirmation) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(confirmation).
		On("CONFLICT (competition_id, competitor_id, record_type) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add record confirmation: %w", err)
	}
	return nil
}

// ListRecordConfirmations returns every ratification of the competition.
func (r *Impl) ListRecordConfirmations(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]RecordConfirmation, error) {
	db = r.resolveDB(db)
	var confirmations []RecordConfirmation
	err := db.NewSelect().
		Model(&confirmations).
		Where("competition_id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list record confirmations: %w", err)
	}
	return confirmations, nil
}
