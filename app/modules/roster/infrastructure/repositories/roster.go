package rosterdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new roster repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// CreateCompetition inserts a new competition.
func (r *Impl) CreateCompetition(ctx context.Context, db bun.IDB, competition *Competition) error {
	db = r.resolveDB(db)
	if competition.ID == uuid.Nil {
		competition.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(competition).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}
	return nil
}

// GetCompetition retrieves a competition by ID.
func (r *Impl) GetCompetition(ctx context.Context, db bun.IDB, id uuid.UUID) (*Competition, error) {
	db = r.resolveDB(db)
	competition := new(Competition)
	err := db.NewSelect().
		Model(competition).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	return competition, nil
}

// UpsertCompetitors replaces price-list rows by (competition_id, id).
func (r *Impl) UpsertCompetitors(ctx context.Context, db bun.IDB, competitors []Competitor) error {
	if len(competitors) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	now := time.Now().UTC()
	for i := range competitors {
		competitors[i].UpdatedAt = now
	}
	_, err := db.NewInsert().
		Model(&competitors).
		On("CONFLICT (competition_id, id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("country_code = EXCLUDED.country_code").
		Set("gender = EXCLUDED.gender").
		Set("personal_best_seconds = EXCLUDED.personal_best_seconds").
		Set("marathon_rank = EXCLUDED.marathon_rank").
		Set("price = EXCLUDED.price").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert competitors: %w", err)
	}
	return nil
}

// ListCompetitors returns the competition's price list ordered by price.
func (r *Impl) ListCompetitors(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]Competitor, error) {
	db = r.resolveDB(db)
	var competitors []Competitor
	err := db.NewSelect().
		Model(&competitors).
		Where("competition_id = ?", competitionID).
		OrderExpr("price DESC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	return competitors, nil
}

// CreateRoster inserts a roster. A second roster for the same owner and
// competition yields ErrRosterExists.
func (r *Impl) CreateRoster(ctx context.Context, db bun.IDB, roster *Roster) error {
	db = r.resolveDB(db)
	if roster.ID == uuid.Nil {
		roster.ID = uuid.New()
	}
	now := time.Now().UTC()
	roster.CreatedAt = now
	roster.UpdatedAt = now
	if _, err := db.NewInsert().Model(roster).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrRosterExists
		}
		return fmt.Errorf("failed to create roster: %w", err)
	}
	return nil
}

// GetRoster retrieves a roster by ID.
func (r *Impl) GetRoster(ctx context.Context, db bun.IDB, id uuid.UUID) (*Roster, error) {
	return r.getRoster(ctx, r.resolveDB(db), id, false)
}

// GetRosterForUpdate retrieves a roster with a row lock.
func (r *Impl) GetRosterForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Roster, error) {
	return r.getRoster(ctx, r.resolveDB(db), id, true)
}

func (r *Impl) getRoster(ctx context.Context, db bun.IDB, id uuid.UUID, forUpdate bool) (*Roster, error) {
	roster := new(Roster)
	q := db.NewSelect().
		Model(roster).
		Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return roster, nil
}

// UpdateRoster writes status, slots and submission time.
func (r *Impl) UpdateRoster(ctx context.Context, db bun.IDB, roster *Roster) error {
	db = r.resolveDB(db)
	roster.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(roster).
		Column("status", "slots", "submitted_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update roster: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRosterNotFound
	}
	return nil
}

// ListRostersByStatus returns the competition's rosters in any of statuses.
func (r *Impl) ListRostersByStatus(ctx context.Context, db bun.IDB, competitionID uuid.UUID, statuses []string) ([]Roster, error) {
	db = r.resolveDB(db)
	var rosters []Roster
	err := db.NewSelect().
		Model(&rosters).
		Where("competition_id = ?", competitionID).
		Where("status IN (?)", bun.In(statuses)).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}
	return rosters, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
