package rosterservice

import (
	"errors"
	"fmt"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
)

var (
	// ErrAutosaveNotAllowed indicates a save attempt outside the draft and
	// editing states, or after the lock.
	ErrAutosaveNotAllowed = errors.New("autosave not allowed")

	// ErrInvalidRoster indicates a submit of a roster that fails validation.
	ErrInvalidRoster = errors.New("roster is not valid")

	ErrEmptyOwner = errors.New("owner id is required")

	ErrInvalidCompetition = errors.New("invalid competition")
)

// InvalidRosterError carries the report that blocked a submit.
type InvalidRosterError struct {
	Report rosterdomain.ValidationReport
}

func (e *InvalidRosterError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidRoster, e.Report.Errors)
}

func (e *InvalidRosterError) Unwrap() error { return ErrInvalidRoster }
