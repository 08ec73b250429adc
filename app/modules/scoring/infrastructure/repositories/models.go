package scoringdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
)

// RaceResult is the latest reported result of one competitor.
type RaceResult struct {
	bun.BaseModel `bun:"table:race_results,alias:rr"`

	CompetitionID     uuid.UUID          `bun:"competition_id,pk,type:uuid"`
	CompetitorID      string             `bun:"competitor_id,pk"`
	Placement         *int               `bun:"placement"`
	FinishTimeSeconds *float64           `bun:"finish_time_seconds"`
	SplitTimes        map[string]float64 `bun:"split_times,type:jsonb"`
	ReportedAt        time.Time          `bun:"reported_at,nullzero,notnull,default:current_timestamp"`
}

// PointsBreakdown is the stored score of one competitor. Rows are replaced
// wholesale whenever the competitor is rescored.
type PointsBreakdown struct {
	bun.BaseModel `bun:"table:points_breakdowns,alias:pb"`

	CompetitionID      uuid.UUID                   `bun:"competition_id,pk,type:uuid"`
	CompetitorID       string                      `bun:"competitor_id,pk"`
	Status             string                      `bun:"status,notnull"`
	PlacementPoints    int                         `bun:"placement_points,notnull"`
	TimeGapPoints      int                         `bun:"time_gap_points,notnull"`
	PerformanceBonuses []scoringdomain.BonusAward  `bun:"performance_bonuses,type:jsonb,notnull"`
	RecordBonuses      []scoringdomain.RecordAward `bun:"record_bonuses,type:jsonb,notnull"`
	TotalPoints        int                         `bun:"total_points,notnull"`
	ScoredAt           time.Time                   `bun:"scored_at,nullzero,notnull,default:current_timestamp"`
}

// RecordConfirmation is an external ratification of a claimed record.
type RecordConfirmation struct {
	bun.BaseModel `bun:"table:record_confirmations,alias:rc"`

	CompetitionID uuid.UUID `bun:"competition_id,pk,type:uuid"`
	CompetitorID  string    `bun:"competitor_id,pk"`
	RecordType    string    `bun:"record_type,pk"`
	ConfirmedAt   time.Time `bun:"confirmed_at,nullzero,notnull,default:current_timestamp"`
}

// Domain converts the stored result to the engine's input.
func (r RaceResult) Domain() scoringdomain.RaceResult {
	return scoringdomain.RaceResult{
		CompetitorID:      r.CompetitorID,
		Placement:         r.Placement,
		FinishTimeSeconds: r.FinishTimeSeconds,
		SplitTimes:        r.SplitTimes,
	}
}

// RaceResultFromDomain builds a storable result row.
func RaceResultFromDomain(competitionID uuid.UUID, r scoringdomain.RaceResult, at time.Time) RaceResult {
	return RaceResult{
		CompetitionID:     competitionID,
		CompetitorID:      r.CompetitorID,
		Placement:         r.Placement,
		FinishTimeSeconds: r.FinishTimeSeconds,
		SplitTimes:        r.SplitTimes,
		ReportedAt:        at,
	}
}

// Domain converts the stored breakdown to the engine's type.
func (b PointsBreakdown) Domain() scoringdomain.PointsBreakdown {
	out := scoringdomain.PointsBreakdown{
		CompetitorID:       b.CompetitorID,
		Status:             scoringdomain.ResultStatus(b.Status),
		PlacementPoints:    b.PlacementPoints,
		TimeGapPoints:      b.TimeGapPoints,
		PerformanceBonuses: b.PerformanceBonuses,
		RecordBonuses:      b.RecordBonuses,
		TotalPoints:        b.TotalPoints,
	}
	if out.PerformanceBonuses == nil {
		out.PerformanceBonuses = []scoringdomain.BonusAward{}
	}
	if out.RecordBonuses == nil {
		out.RecordBonuses = []scoringdomain.RecordAward{}
	}
	return out
}

// BreakdownFromDomain builds a storable breakdown row.
func BreakdownFromDomain(competitionID uuid.UUID, b scoringdomain.PointsBreakdown, at time.Time) PointsBreakdown {
	return PointsBreakdown{
		CompetitionID:      competitionID,
		CompetitorID:       b.CompetitorID,
		Status:             string(b.Status),
		PlacementPoints:    b.PlacementPoints,
		TimeGapPoints:      b.TimeGapPoints,
		PerformanceBonuses: b.PerformanceBonuses,
		RecordBonuses:      b.RecordBonuses,
		TotalPoints:        b.TotalPoints,
		ScoredAt:           at,
	}
}
