package lockservice

import "errors"

var (
	// ErrAlreadyLocked is returned when moving a lock that has already passed.
	ErrAlreadyLocked = errors.New("competition already locked")

	// ErrNotYetLocked means a lock job ran before its instant.
	ErrNotYetLocked = errors.New("lock instant not reached")
)
