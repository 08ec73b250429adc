// Package events defines the payloads carried on the event bus topics.
package events

import (
	"time"

	"github.com/google/uuid"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
)

// RosterSubmittedPayloadV1 is published when a roster moves to submitted.
type RosterSubmittedPayloadV1 struct {
	CompetitionID uuid.UUID                 `json:"competition_id"`
	RosterID      uuid.UUID                 `json:"roster_id"`
	OwnerID       string                    `json:"owner_id"`
	Slots         []rosterdomain.RosterSlot `json:"slots"`
	Spent         rosterdomain.Money        `json:"spent"`
	SubmittedAt   time.Time                 `json:"submitted_at"`
}
