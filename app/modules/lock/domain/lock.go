package lockdomain

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the engine-side lock state of a competition.
type Phase string

const (
	PhaseOpen   Phase = "open"
	PhaseLocked Phase = "locked"
)

// SubmissionStatus is tracked by the caller per roster and passed in on every
// evaluation; the engine keeps no memory of it.
type SubmissionStatus string

const (
	StatusDraft     SubmissionStatus = "draft"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusEditing   SubmissionStatus = "editing"
)

// ErrUnknownStatus indicates a submission status outside draft/submitted/editing.
var ErrUnknownStatus = errors.New("unknown submission status")

// ParseSubmissionStatus converts stored or wire text into a status.
func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	status := SubmissionStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Valid reports whether the status is one of the three known values.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusEditing:
		return true
	}
	return false
}

// LockConfig is owned by the administrative surface. A nil LockTimestamp
// means no time lock has been configured.
type LockConfig struct {
	LockTimestamp    *time.Time
	ResultsFinalized bool
}

// EditabilityState is derived on every call and never stored by the engine.
type EditabilityState struct {
	IsLocked        bool `json:"is_locked"`
	IsEditable      bool `json:"is_editable"`
	AutosaveAllowed bool `json:"autosave_allowed"`
}

// IsLocked reports whether the competition is locked at now. The timestamp
// boundary is inclusive, and finalization locks regardless of time.
func IsLocked(cfg LockConfig, now time.Time) bool {
	if cfg.ResultsFinalized {
		return true
	}
	return cfg.LockTimestamp != nil && !now.Before(*cfg.LockTimestamp)
}

// PhaseAt returns the lock phase at now.
func PhaseAt(cfg LockConfig, now time.Time) Phase {
	if IsLocked(cfg, now) {
		return PhaseLocked
	}
	return PhaseOpen
}

// Evaluate derives what the caller may do with a roster at now.
//
// Once locked, nothing is editable whatever the submission status, including
// a client that entered edit mode before finalization. A submitted roster is
// read-only until the caller moves it to editing. Autosave is reserved for
// drafts so it can never overwrite an explicit submission.
func Evaluate(cfg LockConfig, status SubmissionStatus, now time.Time) EditabilityState {
	locked := IsLocked(cfg, now)
	if locked || !status.Valid() {
		return EditabilityState{IsLocked: locked}
	}
	return EditabilityState{
		IsLocked:        false,
		IsEditable:      status != StatusSubmitted,
		AutosaveAllowed: status == StatusDraft,
	}
}

// Until returns how long remains before the time lock engages, and false when
// no timestamp is set or the competition is already locked at now.
func Until(cfg LockConfig, now time.Time) (time.Duration, bool) {
	if cfg.LockTimestamp == nil || IsLocked(cfg, now) {
		return 0, false
	}
	return cfg.LockTimestamp.Sub(now), true
}
