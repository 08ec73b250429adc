package events

import (
	"time"

	"github.com/google/uuid"
)

// CompetitionLockedPayloadV1 is published once the lock timestamp passes.
type CompetitionLockedPayloadV1 struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	LockedAt      time.Time `json:"locked_at"`
}

// CompetitionFinalizedPayloadV1 is published when results are finalized.
type CompetitionFinalizedPayloadV1 struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	FinalizedAt   time.Time `json:"finalized_at"`
}
