package lockdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a competition has no lock row.
var ErrNotFound = errors.New("competition lock not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new lock repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Get retrieves the lock configuration of a competition.
func (r *Impl) Get(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*CompetitionLock, error) {
	return r.get(ctx, r.resolveDB(db), competitionID, false)
}

// GetForUpdate retrieves the lock configuration with a row lock.
func (r *Impl) GetForUpdate(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*CompetitionLock, error) {
	return r.get(ctx, r.resolveDB(db), competitionID, true)
}

func (r *Impl) get(ctx context.Context, db bun.IDB, competitionID uuid.UUID, forUpdate bool) (*CompetitionLock, error) {
	lock := new(CompetitionLock)
	q := db.NewSelect().
		Model(lock).
		Where("competition_id = ?", competitionID)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get competition lock: %w", err)
	}
	return lock, nil
}

// SetLockTimestamp stores a new lock instant, creating the row if needed.
func (r *Impl) SetLockTimestamp(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error {
	db = r.resolveDB(db)
	ts := at.UTC()
	lock := &CompetitionLock{
		CompetitionID: competitionID,
		LockTimestamp: &ts,
		UpdatedAt:     time.Now().UTC(),
	}
	_, err := db.NewInsert().
		Model(lock).
		On("CONFLICT (competition_id) DO UPDATE").
		Set("lock_timestamp = EXCLUDED.lock_timestamp").
		Set("lock_job_id = NULL").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set lock timestamp: %w", err)
	}
	return nil
}

// SetLockJobID records the queue job that observes the current lock instant.
func (r *Impl) SetLockJobID(ctx context.Context, db bun.IDB, competitionID uuid.UUID, jobID int64) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*CompetitionLock)(nil)).
		Set("lock_job_id = ?", jobID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("competition_id = ?", competitionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set lock job id: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Finalize marks results as final. The flag is never cleared.
func (r *Impl) Finalize(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error {
	db = r.resolveDB(db)
	ts := at.UTC()
	lock := &CompetitionLock{
		CompetitionID:    competitionID,
		ResultsFinalized: true,
		FinalizedAt:      &ts,
		UpdatedAt:        ts,
	}
	_, err := db.NewInsert().
		Model(lock).
		On("CONFLICT (competition_id) DO UPDATE").
		Set("results_finalized = TRUE").
		Set("finalized_at = COALESCE(?TableAlias.finalized_at, EXCLUDED.finalized_at)").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to finalize results: %w", err)
	}
	return nil
}
