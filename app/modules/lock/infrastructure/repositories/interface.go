package lockdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists per-competition lock configuration.
type Repository interface {
	// Get returns ErrNotFound when no lock has ever been configured.
	Get(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*CompetitionLock, error)
	GetForUpdate(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*CompetitionLock, error)
	SetLockTimestamp(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error
	SetLockJobID(ctx context.Context, db bun.IDB, competitionID uuid.UUID, jobID int64) error
	Finalize(ctx context.Context, db bun.IDB, competitionID uuid.UUID, at time.Time) error
}
