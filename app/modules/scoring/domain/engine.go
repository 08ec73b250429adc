package scoringdomain

import (
	"fmt"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
)

// RecordStatus tags a record bonus until an external ratification arrives.
type RecordStatus string

const (
	RecordProvisional RecordStatus = "provisional"
	RecordConfirmed   RecordStatus = "confirmed"
)

// BonusAward is one matched performance bonus.
type BonusAward struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
}

// RecordAward is one beaten record threshold.
type RecordAward struct {
	Type   string       `json:"type"`
	Points int          `json:"points"`
	Status RecordStatus `json:"status"`
}

// PointsBreakdown is recomputed wholesale for every score and never edited in
// place. TotalPoints always equals the sum of the four components.
type PointsBreakdown struct {
	CompetitorID       string        `json:"competitor_id"`
	Status             ResultStatus  `json:"status"`
	PlacementPoints    int           `json:"placement_points"`
	TimeGapPoints      int           `json:"time_gap_points"`
	PerformanceBonuses []BonusAward  `json:"performance_bonuses"`
	RecordBonuses      []RecordAward `json:"record_bonuses"`
	TotalPoints        int           `json:"total_points"`
}

// Score derives the points breakdown for one competitor's result.
func Score(result RaceResult, policy ScoringPolicy) (PointsBreakdown, error) {
	if err := ValidateResult(result); err != nil {
		return PointsBreakdown{}, err
	}

	b := PointsBreakdown{
		CompetitorID:       result.CompetitorID,
		Status:             Classify(result),
		PerformanceBonuses: []BonusAward{},
		RecordBonuses:      []RecordAward{},
	}
	if b.Status != StatusFinished {
		return b, nil
	}
	finish := *result.FinishTimeSeconds

	if result.Placement != nil {
		b.PlacementPoints = policy.placementPoints(*result.Placement)
	}

	if policy.WinnerTimeSeconds != nil && policy.GapCurve != nil {
		gap := finish - *policy.WinnerTimeSeconds
		if gap < 0 {
			return PointsBreakdown{}, fmt.Errorf("%w: competitor %s is %.3fs ahead", ErrFasterThanWinner, result.CompetitorID, -gap)
		}
		if gap <= policy.MaxGapSeconds {
			b.TimeGapPoints = policy.GapCurve.Points(gap, policy.MaxGapSeconds)
		}
	}

	for _, def := range policy.PerformanceBonuses {
		if def.Predicate != nil && def.Predicate(result) {
			b.PerformanceBonuses = append(b.PerformanceBonuses, BonusAward{Type: def.Type, Points: def.Points})
		}
	}

	for _, rec := range policy.RecordThresholds {
		if finish >= rec.ThresholdSeconds {
			continue
		}
		status := RecordProvisional
		if policy.isConfirmed(result.CompetitorID, rec.Type) {
			status = RecordConfirmed
		}
		b.RecordBonuses = append(b.RecordBonuses, RecordAward{Type: rec.Type, Points: rec.Points, Status: status})
	}

	b.TotalPoints = b.sum()
	return b, nil
}

func (b PointsBreakdown) sum() int {
	total := b.PlacementPoints + b.TimeGapPoints
	for _, bonus := range b.PerformanceBonuses {
		total += bonus.Points
	}
	for _, rec := range b.RecordBonuses {
		total += rec.Points
	}
	return total
}

// RatifiedTotal is the total with provisional record bonuses withheld.
func RatifiedTotal(b PointsBreakdown) int {
	total := b.TotalPoints
	for _, rec := range b.RecordBonuses {
		if rec.Status == RecordProvisional {
			total -= rec.Points
		}
	}
	return total
}

// HasProvisional reports whether any record bonus is awaiting ratification.
func HasProvisional(b PointsBreakdown) bool {
	for _, rec := range b.RecordBonuses {
		if rec.Status == RecordProvisional {
			return true
		}
	}
	return false
}

// ConfirmRecord returns a copy of b with the named record confirmed. The
// second return is false when b holds no such record.
func ConfirmRecord(b PointsBreakdown, recordType string) (PointsBreakdown, bool) {
	out := b
	out.PerformanceBonuses = append([]BonusAward{}, b.PerformanceBonuses...)
	out.RecordBonuses = make([]RecordAward, len(b.RecordBonuses))
	found := false
	for i, rec := range b.RecordBonuses {
		if rec.Type == recordType {
			rec.Status = RecordConfirmed
			found = true
		}
		out.RecordBonuses[i] = rec
	}
	out.TotalPoints = out.sum()
	return out, found
}

// SlotScore is one roster slot's contribution to a team total.
type SlotScore struct {
	SlotID       rosterdomain.SlotID `json:"slot_id"`
	CompetitorID string              `json:"competitor_id,omitempty"`
	Points       int                 `json:"points"`
	Ratified     int                 `json:"ratified_points"`
	Scored       bool                `json:"scored"`
}

// TeamScore aggregates a roster's seated competitors.
type TeamScore struct {
	TotalPoints    int         `json:"total_points"`
	RatifiedPoints int         `json:"ratified_points"`
	Slots          []SlotScore `json:"slots"`
}

// Aggregate sums the latest breakdown of every seated competitor. Empty slots
// and competitors not yet scored contribute zero.
func Aggregate(breakdowns map[string]PointsBreakdown, roster rosterdomain.Roster) TeamScore {
	team := TeamScore{Slots: make([]SlotScore, 0, rosterdomain.SlotCount)}
	for _, slot := range roster.Slots() {
		s := SlotScore{SlotID: slot.SlotID}
		if slot.CompetitorID != nil {
			s.CompetitorID = *slot.CompetitorID
			if b, ok := breakdowns[s.CompetitorID]; ok {
				s.Points = b.TotalPoints
				s.Ratified = RatifiedTotal(b)
				s.Scored = true
			}
		}
		team.TotalPoints += s.Points
		team.RatifiedPoints += s.Ratified
		team.Slots = append(team.Slots, s)
	}
	return team
}
