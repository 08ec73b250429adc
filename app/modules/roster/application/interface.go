package rosterservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// Service manages competitions, their price lists and the rosters drafted
// against them.
type Service interface {
	CreateCompetition(ctx context.Context, name string, salaryCap int64) (CompetitionResult, error)
	UpsertCompetitors(ctx context.Context, competitionID uuid.UUID, competitors []rosterdomain.Competitor) (results.OperationResult[int, error], error)
	ImportPriceList(ctx context.Context, competitionID uuid.UUID, xlsx []byte) (results.OperationResult[int, error], error)
	ListCompetitors(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[[]rosterdomain.Competitor, error], error)

	// ValidateRoster prices the picks at today's price list and reports on
	// them without storing anything.
	ValidateRoster(ctx context.Context, competitionID uuid.UUID, picks []SlotPick) (results.OperationResult[rosterdomain.ValidationReport, error], error)
	CheckSelection(ctx context.Context, rosterID uuid.UUID, slotID rosterdomain.SlotID, competitorID string) (results.OperationResult[SelectionCheck, error], error)

	CreateRoster(ctx context.Context, competitionID uuid.UUID, ownerID string) (RosterResult, error)
	GetRoster(ctx context.Context, rosterID uuid.UUID) (RosterResult, error)
	Autosave(ctx context.Context, rosterID uuid.UUID, picks []SlotPick) (RosterResult, error)
	// Submit applies picks when given, then submits. Nil picks submit the
	// stored roster as is.
	Submit(ctx context.Context, rosterID uuid.UUID, picks []SlotPick) (RosterResult, error)
	BeginEdit(ctx context.Context, rosterID uuid.UUID) (RosterResult, error)
	Editability(ctx context.Context, rosterID uuid.UUID) (results.OperationResult[lockdomain.EditabilityState, error], error)

	// ListScorableRosters returns every submitted or editing roster of a
	// competition.
	ListScorableRosters(ctx context.Context, competitionID uuid.UUID) ([]ScorableRoster, error)
}

// LockReader is the slice of the lock module the roster service depends on.
type LockReader interface {
	LockConfig(ctx context.Context, competitionID uuid.UUID) (lockdomain.LockConfig, error)
	Now() time.Time
}

// SlotPick names the competitor wanted in a slot. An empty CompetitorID
// leaves the slot empty.
type SlotPick struct {
	SlotID       rosterdomain.SlotID `json:"slot_id"`
	CompetitorID string              `json:"competitor_id"`
}

// SelectionCheck answers whether a candidate can go into a slot.
type SelectionCheck struct {
	AlreadySelected bool               `json:"already_selected"`
	Affordable      bool               `json:"affordable"`
	Price           rosterdomain.Money `json:"price"`
	Remaining       rosterdomain.Money `json:"remaining"`
}

// CompetitionView is the API form of a competition.
type CompetitionView struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	SalaryCap rosterdomain.Money `json:"salary_cap"`
	CreatedAt time.Time          `json:"created_at"`
}

// CompetitionResult is the outcome of CreateCompetition.
type CompetitionResult = results.OperationResult[CompetitionView, error]

// ReportView is the JSON rendering of a validation report.
type ReportView struct {
	TotalBudget       rosterdomain.Money `json:"total_budget"`
	Spent             rosterdomain.Money `json:"spent"`
	Remaining         rosterdomain.Money `json:"remaining"`
	FilledSlotCount   int                `json:"filled_slot_count"`
	RequiredSlotCount int                `json:"required_slot_count"`
	Errors            []string           `json:"errors"`
	IsValid           bool               `json:"is_valid"`
}

// NewReportView copies a report for rendering.
func NewReportView(r rosterdomain.ValidationReport) ReportView {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return ReportView{
		TotalBudget:       r.TotalBudget,
		Spent:             r.Spent,
		Remaining:         r.Remaining,
		FilledSlotCount:   r.FilledSlotCount,
		RequiredSlotCount: r.RequiredSlotCount,
		Errors:            errs,
		IsValid:           r.IsValid,
	}
}

// RosterView is a stored roster with its report and editability.
type RosterView struct {
	ID            uuid.UUID                   `json:"id"`
	CompetitionID uuid.UUID                   `json:"competition_id"`
	OwnerID       string                      `json:"owner_id"`
	Status        lockdomain.SubmissionStatus `json:"status"`
	Slots         []rosterdomain.RosterSlot   `json:"slots"`
	Report        ReportView                  `json:"report"`
	Editability   lockdomain.EditabilityState `json:"editability"`
	SubmittedAt   *time.Time                  `json:"submitted_at,omitempty"`
}

// RosterResult is the outcome of roster operations.
type RosterResult = results.OperationResult[RosterView, error]

// ScorableRoster is what the scoring module aggregates.
type ScorableRoster struct {
	ID      uuid.UUID
	OwnerID string
	Status  lockdomain.SubmissionStatus
	Roster  rosterdomain.Roster
}
