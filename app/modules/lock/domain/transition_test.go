package lockdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	open := EditabilityState{IsEditable: true}
	locked := EditabilityState{IsLocked: true}

	tests := []struct {
		name    string
		current SubmissionStatus
		action  Action
		state   EditabilityState
		want    SubmissionStatus
		wantErr error
	}{
		{"draft submits", StatusDraft, ActionSubmit, open, StatusSubmitted, nil},
		{"submitted enters edit mode", StatusSubmitted, ActionBeginEdit, EditabilityState{}, StatusEditing, nil},
		{"editing resubmits", StatusEditing, ActionSubmit, open, StatusSubmitted, nil},
		{"double submit rejected", StatusSubmitted, ActionSubmit, EditabilityState{}, StatusSubmitted, ErrInvalidTransition},
		{"draft cannot begin edit", StatusDraft, ActionBeginEdit, open, StatusDraft, ErrInvalidTransition},
		{"editing cannot begin edit again", StatusEditing, ActionBeginEdit, open, StatusEditing, ErrInvalidTransition},
		{"locked blocks submit", StatusDraft, ActionSubmit, locked, StatusDraft, ErrLocked},
		{"locked blocks edit mode", StatusSubmitted, ActionBeginEdit, locked, StatusSubmitted, ErrLocked},
		{"unknown action", StatusDraft, Action("delete"), open, StatusDraft, ErrInvalidTransition},
		{"unknown status", SubmissionStatus("x"), ActionSubmit, open, "", ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.current, tt.action, tt.state)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
