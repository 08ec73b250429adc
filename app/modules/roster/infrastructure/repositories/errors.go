package rosterdb

import "errors"

var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrRosterNotFound      = errors.New("roster not found")
	// ErrRosterExists means the owner already has a roster in the competition.
	ErrRosterExists = errors.New("roster already exists")
)
