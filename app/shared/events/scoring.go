package events

import (
	"time"

	"github.com/google/uuid"

	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
)

// RaceResultsSubmittedPayloadV1 carries one race's results for scoring.
type RaceResultsSubmittedPayloadV1 struct {
	CompetitionID uuid.UUID                  `json:"competition_id"`
	Results       []scoringdomain.RaceResult `json:"results"`
}

// ScoringUpdatedPayloadV1 summarizes a completed scoring pass.
type ScoringUpdatedPayloadV1 struct {
	CompetitionID      uuid.UUID `json:"competition_id"`
	ScoredCount        int       `json:"scored_count"`
	ProvisionalRecords int       `json:"provisional_records"`
	ScoredAt           time.Time `json:"scored_at"`
}

// ScoringFailedPayloadV1 reports a rejected results batch.
type ScoringFailedPayloadV1 struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	Reason        string    `json:"reason"`
}
