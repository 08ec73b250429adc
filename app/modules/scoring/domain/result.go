package scoringdomain

import (
	"errors"
	"fmt"
	"math"
)

// ResultStatus classifies a race result before any points are derived.
type ResultStatus string

const (
	StatusDNS      ResultStatus = "DNS"
	StatusDNF      ResultStatus = "DNF"
	StatusFinished ResultStatus = "FINISHED"
)

// Malformed results are rejected before scoring and never partially scored.
var (
	ErrMissingCompetitorID        = errors.New("race result has no competitor id")
	ErrPlacementWithoutFinishTime = errors.New("placement set without finish time")
	ErrInvalidPlacement           = errors.New("placement must be at least 1")
	ErrNegativeTime               = errors.New("negative time in race result")
	ErrNonFiniteTime              = errors.New("non-finite time in race result")
	ErrFasterThanWinner           = errors.New("finish time faster than winner time")
)

// RaceResult is one competitor's outcome in a race. Split times are
// cumulative elapsed seconds keyed by checkpoint name.
type RaceResult struct {
	CompetitorID      string             `json:"competitor_id" yaml:"competitor_id"`
	Placement         *int               `json:"placement,omitempty" yaml:"placement,omitempty"`
	FinishTimeSeconds *float64           `json:"finish_time_seconds,omitempty" yaml:"finish_time_seconds,omitempty"`
	SplitTimes        map[string]float64 `json:"split_times,omitempty" yaml:"split_times,omitempty"`
}

// Classify derives DNS, DNF or Finished. A finish time without a placement is
// still a finish; it simply earns no placement points.
func Classify(r RaceResult) ResultStatus {
	if r.FinishTimeSeconds != nil {
		return StatusFinished
	}
	if len(r.SplitTimes) == 0 {
		return StatusDNS
	}
	return StatusDNF
}

// ValidateResult rejects malformed results.
func ValidateResult(r RaceResult) error {
	if r.CompetitorID == "" {
		return ErrMissingCompetitorID
	}
	if r.Placement != nil {
		if r.FinishTimeSeconds == nil {
			return fmt.Errorf("%w: competitor %s placed %d", ErrPlacementWithoutFinishTime, r.CompetitorID, *r.Placement)
		}
		if *r.Placement < 1 {
			return fmt.Errorf("%w: competitor %s placed %d", ErrInvalidPlacement, r.CompetitorID, *r.Placement)
		}
	}
	if r.FinishTimeSeconds != nil {
		finish := *r.FinishTimeSeconds
		if !isFinite(finish) {
			return fmt.Errorf("%w: competitor %s finish", ErrNonFiniteTime, r.CompetitorID)
		}
		if finish < 0 {
			return fmt.Errorf("%w: competitor %s finish %.3f", ErrNegativeTime, r.CompetitorID, finish)
		}
	}
	for name, secs := range r.SplitTimes {
		if !isFinite(secs) {
			return fmt.Errorf("%w: competitor %s split %s", ErrNonFiniteTime, r.CompetitorID, name)
		}
		if secs < 0 {
			return fmt.Errorf("%w: competitor %s split %s", ErrNegativeTime, r.CompetitorID, name)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WinnerTime returns the fastest finish among placement-1 results, if any.
// Dead heats share placement 1, so the input order never matters.
func WinnerTime(results []RaceResult) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, r := range results {
		if r.Placement == nil || *r.Placement != 1 || r.FinishTimeSeconds == nil {
			continue
		}
		if !found || *r.FinishTimeSeconds < best {
			best = *r.FinishTimeSeconds
			found = true
		}
	}
	return best, found
}
