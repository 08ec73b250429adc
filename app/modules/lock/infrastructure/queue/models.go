package lockqueue

import (
	"time"

	"github.com/google/uuid"
)

// LockObservedJob fires at a competition's lock instant. LockAt is compared
// against the stored timestamp when the job runs, so a job left behind by a
// moved lock does nothing.
type LockObservedJob struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	LockAt        time.Time `json:"lock_at"`
}

// Kind returns the job type identifier for River
func (LockObservedJob) Kind() string { return "competition_lock_observed" }

// JobInfo describes a queued lock job for operators.
type JobInfo struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	State       string    `json:"state"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"max_attempts"`
}
