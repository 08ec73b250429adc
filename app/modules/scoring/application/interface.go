package scoringservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	rosterservice "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/application"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// Service scores race results and derives team standings.
type Service interface {
	// ScoreRace stores a batch of results and rescores the competition. The
	// batch is accepted or rejected as a whole.
	ScoreRace(ctx context.Context, competitionID uuid.UUID, batch []scoringdomain.RaceResult) (results.OperationResult[ScoreSummary, error], error)

	// ConfirmRecord ratifies a record bonus a competitor already claimed.
	ConfirmRecord(ctx context.Context, competitionID uuid.UUID, competitorID, recordType string) (results.OperationResult[scoringdomain.PointsBreakdown, error], error)

	ListBreakdowns(ctx context.Context, competitionID uuid.UUID) ([]scoringdomain.PointsBreakdown, error)
	Standings(ctx context.Context, competitionID uuid.UUID) ([]Standing, error)

	ExportXLSX(ctx context.Context, competitionID uuid.UUID) ([]byte, error)
	StandingsChart(ctx context.Context, competitionID uuid.UUID) ([]byte, error)
}

// RosterSource lists the rosters that count toward standings.
type RosterSource interface {
	ListScorableRosters(ctx context.Context, competitionID uuid.UUID) ([]rosterservice.ScorableRoster, error)
}

// ScoreSummary describes one accepted scoring pass.
type ScoreSummary struct {
	CompetitionID      uuid.UUID                       `json:"competition_id"`
	Accepted           int                             `json:"accepted"`
	ScoredCount        int                             `json:"scored_count"`
	ProvisionalRecords int                             `json:"provisional_records"`
	Breakdowns         []scoringdomain.PointsBreakdown `json:"breakdowns"`
	ScoredAt           time.Time                       `json:"scored_at"`
}

// Standing is one roster's place in a competition.
type Standing struct {
	Rank           int                       `json:"rank"`
	RosterID       uuid.UUID                 `json:"roster_id"`
	OwnerID        string                    `json:"owner_id"`
	TotalPoints    int                       `json:"total_points"`
	RatifiedPoints int                       `json:"ratified_points"`
	Provisional    bool                      `json:"provisional"`
	Slots          []scoringdomain.SlotScore `json:"slots"`
}
