package lockdomain

import (
	"errors"
	"fmt"
)

// Action is a caller request to move a roster's submission status.
type Action string

const (
	// ActionSubmit submits a draft, or resubmits a roster being edited.
	ActionSubmit Action = "submit"
	// ActionBeginEdit reopens a submitted roster for explicit editing.
	ActionBeginEdit Action = "begin_edit"
)

var (
	// ErrLocked indicates the competition is locked and no status change is allowed.
	ErrLocked = errors.New("competition is locked")

	// ErrInvalidTransition indicates the action does not apply to the current status.
	ErrInvalidTransition = errors.New("invalid submission status transition")
)

// Transition returns the status that results from applying action to current,
// given the editability the caller just evaluated. It never consults a clock;
// the caller re-evaluates with fresh time before each call.
func Transition(current SubmissionStatus, action Action, state EditabilityState) (SubmissionStatus, error) {
	if !current.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, current)
	}
	if state.IsLocked {
		return current, ErrLocked
	}

	switch action {
	case ActionSubmit:
		if current == StatusSubmitted {
			return current, fmt.Errorf("%w: roster already submitted", ErrInvalidTransition)
		}
		return StatusSubmitted, nil
	case ActionBeginEdit:
		if current != StatusSubmitted {
			return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, StatusEditing)
		}
		return StatusEditing, nil
	default:
		return current, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
}
