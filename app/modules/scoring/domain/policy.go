package scoringdomain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidPolicy indicates scoring policy data that would break the
// engine's guarantees, such as a placement table that rewards a worse rank.
var ErrInvalidPolicy = errors.New("invalid scoring policy")

// Bonus and record types understood by the policy loader.
const (
	BonusNegativeSplit = "negative_split"
	BonusEvenPace      = "even_pace"

	RecordWorld   = "world"
	RecordCourse  = "course"
	RecordOlympic = "olympic"
)

// GapCurve maps a time gap behind the winner to points. Implementations must
// return their maximum at gap 0 and never increase as the gap grows.
type GapCurve interface {
	Points(gapSeconds, maxGapSeconds float64) int
	Max() int
}

// LinearCurve falls from MaxPoints at gap 0 to 0 at the edge of the window.
type LinearCurve struct {
	MaxPoints int
}

func (c LinearCurve) Points(gap, maxGap float64) int {
	if maxGap <= 0 {
		if gap == 0 {
			return c.MaxPoints
		}
		return 0
	}
	return int(math.Round(float64(c.MaxPoints) * (1 - gap/maxGap)))
}

func (c LinearCurve) Max() int { return c.MaxPoints }

// GapStep awards Points to any gap up to and including UpToSeconds.
type GapStep struct {
	UpToSeconds float64 `yaml:"up_to_seconds"`
	Points      int     `yaml:"points"`
}

// SteppedCurve awards the points of the first step whose bound covers the gap.
// Steps are kept sorted by bound.
type SteppedCurve struct {
	Steps []GapStep
}

func (c SteppedCurve) Points(gap, _ float64) int {
	for _, s := range c.Steps {
		if gap <= s.UpToSeconds {
			return s.Points
		}
	}
	return 0
}

func (c SteppedCurve) Max() int {
	if len(c.Steps) == 0 {
		return 0
	}
	return c.Steps[0].Points
}

// BonusDefinition awards Points when Predicate holds for a finished result.
type BonusDefinition struct {
	Type      string
	Points    int
	Predicate func(RaceResult) bool
}

// RecordThreshold awards Points for a finish strictly under ThresholdSeconds.
type RecordThreshold struct {
	Type             string
	Points           int
	ThresholdSeconds float64
}

// RecordClaim identifies a record that an external process has ratified.
type RecordClaim struct {
	CompetitorID string
	Type         string
}

// ScoringPolicy is supplied wholesale per race. WinnerTimeSeconds is the
// placement-1 finish time; without it no time-gap points are awarded.
type ScoringPolicy struct {
	PlacementTable     map[int]int
	MaxGapSeconds      float64
	GapCurve           GapCurve
	PerformanceBonuses []BonusDefinition
	RecordThresholds   []RecordThreshold
	ConfirmedRecords   []RecordClaim
	WinnerTimeSeconds  *float64
}

// WithWinnerTime returns a copy of the policy bound to one race's winner.
func (p ScoringPolicy) WithWinnerTime(seconds float64) ScoringPolicy {
	p.WinnerTimeSeconds = &seconds
	return p
}

// WithConfirmedRecords returns a copy of the policy with the given claims ratified.
func (p ScoringPolicy) WithConfirmedRecords(claims []RecordClaim) ScoringPolicy {
	p.ConfirmedRecords = append([]RecordClaim(nil), claims...)
	return p
}

func (p ScoringPolicy) placementPoints(placement int) int {
	return p.PlacementTable[placement]
}

func (p ScoringPolicy) isConfirmed(competitorID, recordType string) bool {
	for _, c := range p.ConfirmedRecords {
		if c.CompetitorID == competitorID && c.Type == recordType {
			return true
		}
	}
	return false
}

// ValidatePolicy checks the structural guarantees scoring relies on.
func ValidatePolicy(p ScoringPolicy) error {
	ranks := make([]int, 0, len(p.PlacementTable))
	for rank, pts := range p.PlacementTable {
		if rank < 1 {
			return fmt.Errorf("%w: placement rank %d", ErrInvalidPolicy, rank)
		}
		if pts < 0 {
			return fmt.Errorf("%w: negative points for rank %d", ErrInvalidPolicy, rank)
		}
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if p.PlacementTable[ranks[i]] > p.PlacementTable[ranks[i-1]] {
			return fmt.Errorf("%w: rank %d scores more than rank %d", ErrInvalidPolicy, ranks[i], ranks[i-1])
		}
	}

	if p.MaxGapSeconds < 0 {
		return fmt.Errorf("%w: negative max gap", ErrInvalidPolicy)
	}
	if p.GapCurve == nil {
		return fmt.Errorf("%w: missing gap curve", ErrInvalidPolicy)
	}
	if p.GapCurve.Max() < 0 {
		return fmt.Errorf("%w: negative gap points", ErrInvalidPolicy)
	}
	if stepped, ok := p.GapCurve.(SteppedCurve); ok {
		for i := 1; i < len(stepped.Steps); i++ {
			prev, cur := stepped.Steps[i-1], stepped.Steps[i]
			if cur.UpToSeconds <= prev.UpToSeconds || cur.Points > prev.Points {
				return fmt.Errorf("%w: gap steps must widen and not increase", ErrInvalidPolicy)
			}
		}
	}

	for _, b := range p.PerformanceBonuses {
		if b.Type == "" || b.Predicate == nil || b.Points < 0 {
			return fmt.Errorf("%w: bonus %q", ErrInvalidPolicy, b.Type)
		}
	}
	for _, r := range p.RecordThresholds {
		if r.Type == "" || r.Points < 0 || r.ThresholdSeconds <= 0 {
			return fmt.Errorf("%w: record threshold %q", ErrInvalidPolicy, r.Type)
		}
	}
	if p.WinnerTimeSeconds != nil && *p.WinnerTimeSeconds < 0 {
		return fmt.Errorf("%w: negative winner time", ErrInvalidPolicy)
	}
	return nil
}
