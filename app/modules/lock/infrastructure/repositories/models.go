package lockdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
)

// CompetitionLock is the stored lock configuration of a competition.
type CompetitionLock struct {
	bun.BaseModel `bun:"table:competition_locks,alias:cl"`

	CompetitionID    uuid.UUID  `bun:"competition_id,pk,type:uuid"`
	LockTimestamp    *time.Time `bun:"lock_timestamp"`
	ResultsFinalized bool       `bun:"results_finalized,notnull,default:false"`
	FinalizedAt      *time.Time `bun:"finalized_at"`
	LockJobID        *int64     `bun:"lock_job_id"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Config converts the row to the engine's lock configuration.
func (l CompetitionLock) Config() lockdomain.LockConfig {
	cfg := lockdomain.LockConfig{ResultsFinalized: l.ResultsFinalized}
	if l.LockTimestamp != nil {
		ts := l.LockTimestamp.UTC()
		cfg.LockTimestamp = &ts
	}
	return cfg
}
