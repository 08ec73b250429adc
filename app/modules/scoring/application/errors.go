package scoringservice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyBatch       = errors.New("results batch is empty")
	ErrRejectedResults  = errors.New("results batch rejected")
	ErrRecordNotClaimed = errors.New("competitor has not claimed that record")
	ErrNotScored        = errors.New("competitor has not been scored")
)

// Rejection names one result that failed validation.
type Rejection struct {
	CompetitorID string `json:"competitor_id"`
	Reason       string `json:"reason"`
}

// RejectedResultsError lists every reason a batch was refused.
type RejectedResultsError struct {
	Rejections []Rejection
}

func (e *RejectedResultsError) Error() string {
	parts := make([]string, 0, len(e.Rejections))
	for _, r := range e.Rejections {
		parts = append(parts, fmt.Sprintf("%s: %s", r.CompetitorID, r.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrRejectedResults, strings.Join(parts, "; "))
}

func (e *RejectedResultsError) Unwrap() error { return ErrRejectedResults }
