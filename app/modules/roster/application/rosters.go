package rosterservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// draftContext is everything a roster is checked against.
type draftContext struct {
	competition *rosterdb.Competition
	prices      rosterdomain.PriceList
}

func (d draftContext) budget() rosterdomain.Money {
	return rosterdomain.Money(d.competition.SalaryCap)
}

func (s *RosterService) loadDraftContext(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (draftContext, error) {
	competition, err := s.repo.GetCompetition(ctx, db, competitionID)
	if err != nil {
		return draftContext{}, err
	}
	competitors, err := s.repo.ListCompetitors(ctx, db, competitionID)
	if err != nil {
		return draftContext{}, err
	}
	return draftContext{competition: competition, prices: rosterdb.PriceList(competitors)}, nil
}

func (s *RosterService) loadRoster(ctx context.Context, db bun.IDB, rosterID uuid.UUID, forUpdate bool) (*rosterdb.Roster, error) {
	if forUpdate {
		return s.repo.GetRosterForUpdate(ctx, db, rosterID)
	}
	return s.repo.GetRoster(ctx, db, rosterID)
}

func (s *RosterService) editability(ctx context.Context, competitionID uuid.UUID, status lockdomain.SubmissionStatus) (lockdomain.EditabilityState, error) {
	cfg, err := s.locks.LockConfig(ctx, competitionID)
	if err != nil {
		return lockdomain.EditabilityState{}, fmt.Errorf("failed to load lock config: %w", err)
	}
	return lockdomain.Evaluate(cfg, status, s.locks.Now()), nil
}

// isNotFound reports lookups that the caller answers with a failure.
func isNotFound(err error) bool {
	return errors.Is(err, rosterdb.ErrRosterNotFound) || errors.Is(err, rosterdb.ErrCompetitionNotFound)
}

func buildView(row *rosterdb.Roster, roster rosterdomain.Roster, budget rosterdomain.Money, state lockdomain.EditabilityState) RosterView {
	return RosterView{
		ID:            row.ID,
		CompetitionID: row.CompetitionID,
		OwnerID:       row.OwnerID,
		Status:        lockdomain.SubmissionStatus(row.Status),
		Slots:         roster.Slots(),
		Report:        NewReportView(rosterdomain.Validate(roster, budget)),
		Editability:   state,
		SubmittedAt:   row.SubmittedAt,
	}
}

// applyPicks moves roster to the state picks describe. Slots absent from
// picks are emptied. Unchanged slots keep the price they were picked at;
// changed slots are priced from today's list.
func applyPicks(roster rosterdomain.Roster, picks []SlotPick, prices rosterdomain.PriceList) (rosterdomain.Roster, error) {
	desired := make(map[rosterdomain.SlotID]string, len(picks))
	for _, p := range picks {
		if !p.SlotID.Valid() {
			return rosterdomain.Roster{}, fmt.Errorf("%w: %q", rosterdomain.ErrUnknownSlot, p.SlotID)
		}
		if _, dup := desired[p.SlotID]; dup {
			return rosterdomain.Roster{}, fmt.Errorf("%w: %q", rosterdomain.ErrDuplicateSlot, p.SlotID)
		}
		desired[p.SlotID] = p.CompetitorID
	}

	current := func(slot rosterdomain.RosterSlot) string {
		if slot.CompetitorID == nil {
			return ""
		}
		return *slot.CompetitorID
	}

	out := roster
	var changed []rosterdomain.SlotID
	for _, slot := range roster.Slots() {
		if current(slot) == desired[slot.SlotID] {
			continue
		}
		changed = append(changed, slot.SlotID)
		var err error
		if out, err = rosterdomain.Clear(out, slot.SlotID); err != nil {
			return rosterdomain.Roster{}, err
		}
	}

	// vacate every changed slot first so two picks can swap places
	for _, id := range changed {
		want := desired[id]
		if want == "" {
			continue
		}
		var err error
		if out, err = rosterdomain.Select(out, id, want, prices); err != nil {
			return rosterdomain.Roster{}, err
		}
	}
	return out, nil
}

// ValidateRoster reports on picks priced at the current price list.
func (s *RosterService) ValidateRoster(ctx context.Context, competitionID uuid.UUID, picks []SlotPick) (results.OperationResult[rosterdomain.ValidationReport, error], error) {
	type reportResult = results.OperationResult[rosterdomain.ValidationReport, error]

	return withTelemetry(s, ctx, "ValidateRoster", attr.CompetitionID(competitionID), func(ctx context.Context) (reportResult, error) {
		dc, err := s.loadDraftContext(ctx, nil, competitionID)
		if err != nil {
			if isNotFound(err) {
				return results.FailureResult[rosterdomain.ValidationReport, error](err), nil
			}
			return reportResult{}, err
		}

		slots := make([]rosterdomain.RosterSlot, 0, len(picks))
		for _, p := range picks {
			slot := rosterdomain.RosterSlot{SlotID: p.SlotID}
			if p.CompetitorID != "" {
				id := p.CompetitorID
				price := dc.prices[id].Price
				slot.CompetitorID, slot.PriceAtSelection = &id, &price
			}
			slots = append(slots, slot)
		}

		roster, err := rosterdomain.NewRoster(slots)
		if err != nil {
			return results.FailureResult[rosterdomain.ValidationReport, error](err), nil
		}
		if err := rosterdomain.CheckSelections(roster, dc.prices); err != nil {
			return results.FailureResult[rosterdomain.ValidationReport, error](err), nil
		}

		report := rosterdomain.Validate(roster, dc.budget())
		s.metrics.RecordValidation(ctx, report.IsValid)
		return results.SuccessResult[rosterdomain.ValidationReport, error](report), nil
	})
}

// CheckSelection answers the two questions a picker asks before seating a
// competitor: is it already on the roster, and does it fit the budget once
// the slot's current occupant is released.
func (s *RosterService) CheckSelection(ctx context.Context, rosterID uuid.UUID, slotID rosterdomain.SlotID, competitorID string) (results.OperationResult[SelectionCheck, error], error) {
	type checkResult = results.OperationResult[SelectionCheck, error]

	return withTelemetry(s, ctx, "CheckSelection", attr.RosterID(rosterID), func(ctx context.Context) (checkResult, error) {
		row, err := s.loadRoster(ctx, nil, rosterID, false)
		if err != nil {
			if isNotFound(err) {
				return results.FailureResult[SelectionCheck, error](err), nil
			}
			return checkResult{}, err
		}
		dc, err := s.loadDraftContext(ctx, nil, row.CompetitionID)
		if err != nil {
			return checkResult{}, err
		}
		roster, err := row.Domain()
		if err != nil {
			return checkResult{}, fmt.Errorf("stored roster %s is malformed: %w", rosterID, err)
		}

		if !slotID.Valid() {
			return results.FailureResult[SelectionCheck, error](fmt.Errorf("%w: %q", rosterdomain.ErrUnknownSlot, slotID)), nil
		}
		candidate, ok := dc.prices[competitorID]
		if !ok {
			return results.FailureResult[SelectionCheck, error](fmt.Errorf("%w: %s", rosterdomain.ErrCompetitorNotInPriceList, competitorID)), nil
		}
		if candidate.Gender != slotID.Gender() {
			return results.FailureResult[SelectionCheck, error](fmt.Errorf("%w: %s in slot %s", rosterdomain.ErrGenderMismatch, competitorID, slotID)), nil
		}

		spent := rosterdomain.Validate(roster, dc.budget()).Spent
		if slot, _ := roster.Slot(slotID); slot.PriceAtSelection != nil {
			spent -= *slot.PriceAtSelection
		}

		return results.SuccessResult[SelectionCheck, error](SelectionCheck{
			AlreadySelected: rosterdomain.IsAlreadySelected(roster, competitorID),
			Affordable:      rosterdomain.CanAfford(roster, slotID, candidate, dc.budget()),
			Price:           candidate.Price,
			Remaining:       dc.budget() - spent - candidate.Price,
		}), nil
	})
}

// CreateRoster starts an empty draft for an owner. An owner holds at most one
// roster per competition.
func (s *RosterService) CreateRoster(ctx context.Context, competitionID uuid.UUID, ownerID string) (RosterResult, error) {
	return withTelemetry(s, ctx, "CreateRoster", attr.CompetitionID(competitionID), func(ctx context.Context) (RosterResult, error) {
		if ownerID == "" {
			return results.FailureResult[RosterView, error](ErrEmptyOwner), nil
		}
		competition, err := s.repo.GetCompetition(ctx, nil, competitionID)
		if err != nil {
			if isNotFound(err) {
				return results.FailureResult[RosterView, error](err), nil
			}
			return RosterResult{}, err
		}

		empty := rosterdomain.EmptyRoster()
		row := &rosterdb.Roster{
			ID:            uuid.New(),
			CompetitionID: competitionID,
			OwnerID:       ownerID,
			Status:        string(lockdomain.StatusDraft),
			Slots:         empty.Slots(),
		}
		if err := s.repo.CreateRoster(ctx, nil, row); err != nil {
			if errors.Is(err, rosterdb.ErrRosterExists) {
				return results.FailureResult[RosterView, error](err), nil
			}
			return RosterResult{}, err
		}

		state, err := s.editability(ctx, competitionID, lockdomain.StatusDraft)
		if err != nil {
			return RosterResult{}, err
		}
		s.logger.InfoContext(ctx, "Roster created",
			attr.CompetitionID(competitionID),
			attr.RosterID(row.ID),
			attr.String("owner_id", ownerID),
		)
		return results.SuccessResult[RosterView, error](buildView(row, empty, rosterdomain.Money(competition.SalaryCap), state)), nil
	})
}

// GetRoster returns the stored roster with a fresh report and editability.
func (s *RosterService) GetRoster(ctx context.Context, rosterID uuid.UUID) (RosterResult, error) {
	return withTelemetry(s, ctx, "GetRoster", attr.RosterID(rosterID), func(ctx context.Context) (RosterResult, error) {
		row, err := s.loadRoster(ctx, nil, rosterID, false)
		if err != nil {
			if isNotFound(err) {
				return results.FailureResult[RosterView, error](err), nil
			}
			return RosterResult{}, err
		}
		competition, err := s.repo.GetCompetition(ctx, nil, row.CompetitionID)
		if err != nil {
			return RosterResult{}, err
		}
		roster, err := row.Domain()
		if err != nil {
			return RosterResult{}, fmt.Errorf("stored roster %s is malformed: %w", rosterID, err)
		}
		state, err := s.editability(ctx, row.CompetitionID, lockdomain.SubmissionStatus(row.Status))
		if err != nil {
			return RosterResult{}, err
		}
		return results.SuccessResult[RosterView, error](buildView(row, roster, rosterdomain.Money(competition.SalaryCap), state)), nil
	})
}

// Editability evaluates the roster's lock state right now.
func (s *RosterService) Editability(ctx context.Context, rosterID uuid.UUID) (results.OperationResult[lockdomain.EditabilityState, error], error) {
	type stateResult = results.OperationResult[lockdomain.EditabilityState, error]

	return withTelemetry(s, ctx, "Editability", attr.RosterID(rosterID), func(ctx context.Context) (stateResult, error) {
		row, err := s.loadRoster(ctx, nil, rosterID, false)
		if err != nil {
			if isNotFound(err) {
				return results.FailureResult[lockdomain.EditabilityState, error](err), nil
			}
			return stateResult{}, err
		}
		state, err := s.editability(ctx, row.CompetitionID, lockdomain.SubmissionStatus(row.Status))
		if err != nil {
			return stateResult{}, err
		}
		return results.SuccessResult[lockdomain.EditabilityState, error](state), nil
	})
}

// mutation is one locked read-modify-write of a roster row.
type mutation func(ctx context.Context, row *rosterdb.Roster, roster rosterdomain.Roster, dc draftContext, state lockdomain.EditabilityState) (rosterdomain.Roster, error)

// mutate runs fn against the row under a row lock and persists what it
// returns. Errors from fn that are domain failures are returned as failures.
func (s *RosterService) mutate(ctx context.Context, operation string, rosterID uuid.UUID, fn mutation) (RosterResult, *rosterdb.Roster, error) {
	var saved *rosterdb.Roster

	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (RosterResult, error) {
		row, err := s.loadRoster(ctx, db, rosterID, true)
		if err != nil {
			if isNotFound(err) {
				return results.FailureResult[RosterView, error](err), nil
			}
			return RosterResult{}, err
		}
		status, err := lockdomain.ParseSubmissionStatus(row.Status)
		if err != nil {
			return RosterResult{}, fmt.Errorf("stored roster %s: %w", rosterID, err)
		}
		dc, err := s.loadDraftContext(ctx, db, row.CompetitionID)
		if err != nil {
			return RosterResult{}, err
		}
		roster, err := row.Domain()
		if err != nil {
			return RosterResult{}, fmt.Errorf("stored roster %s is malformed: %w", rosterID, err)
		}
		state, err := s.editability(ctx, row.CompetitionID, status)
		if err != nil {
			return RosterResult{}, err
		}

		updated, err := fn(ctx, row, roster, dc, state)
		if err != nil {
			if isStateConflict(err) {
				s.metrics.RecordStateConflict(ctx, operation)
			}
			if isDomainFailure(err) {
				return results.FailureResult[RosterView, error](err), nil
			}
			return RosterResult{}, err
		}

		row.Slots = updated.Slots()
		row.UpdatedAt = s.locks.Now()
		if err := s.repo.UpdateRoster(ctx, db, row); err != nil {
			return RosterResult{}, err
		}
		saved = row

		after, err := s.editability(ctx, row.CompetitionID, lockdomain.SubmissionStatus(row.Status))
		if err != nil {
			return RosterResult{}, err
		}
		return results.SuccessResult[RosterView, error](buildView(row, updated, dc.budget(), after)), nil
	})
	return result, saved, err
}

func isStateConflict(err error) bool {
	return errors.Is(err, lockdomain.ErrLocked) ||
		errors.Is(err, lockdomain.ErrInvalidTransition) ||
		errors.Is(err, ErrAutosaveNotAllowed)
}

func isDomainFailure(err error) bool {
	return isStateConflict(err) ||
		errors.Is(err, ErrInvalidRoster) ||
		errors.Is(err, rosterdomain.ErrUnknownSlot) ||
		errors.Is(err, rosterdomain.ErrDuplicateSlot) ||
		errors.Is(err, rosterdomain.ErrIncompleteSlot) ||
		errors.Is(err, rosterdomain.ErrCompetitorNotInPriceList) ||
		errors.Is(err, rosterdomain.ErrGenderMismatch) ||
		errors.Is(err, rosterdomain.ErrAlreadySelected)
}

// Autosave stores in-progress picks of a draft. Submitted rosters are never
// overwritten this way.
func (s *RosterService) Autosave(ctx context.Context, rosterID uuid.UUID, picks []SlotPick) (RosterResult, error) {
	return withTelemetry(s, ctx, "Autosave", attr.RosterID(rosterID), func(ctx context.Context) (RosterResult, error) {
		result, _, err := s.mutate(ctx, "Autosave", rosterID, func(_ context.Context, row *rosterdb.Roster, roster rosterdomain.Roster, dc draftContext, state lockdomain.EditabilityState) (rosterdomain.Roster, error) {
			if !state.AutosaveAllowed {
				return rosterdomain.Roster{}, fmt.Errorf("%w: roster is %s", ErrAutosaveNotAllowed, row.Status)
			}
			return applyPicks(roster, picks, dc.prices)
		})
		return result, err
	})
}

// Submit validates and submits the roster, then announces it.
func (s *RosterService) Submit(ctx context.Context, rosterID uuid.UUID, picks []SlotPick) (RosterResult, error) {
	return withTelemetry(s, ctx, "Submit", attr.RosterID(rosterID), func(ctx context.Context) (RosterResult, error) {
		var report rosterdomain.ValidationReport

		result, saved, err := s.mutate(ctx, "Submit", rosterID, func(ctx context.Context, row *rosterdb.Roster, roster rosterdomain.Roster, dc draftContext, state lockdomain.EditabilityState) (rosterdomain.Roster, error) {
			next, err := lockdomain.Transition(lockdomain.SubmissionStatus(row.Status), lockdomain.ActionSubmit, state)
			if err != nil {
				return rosterdomain.Roster{}, err
			}
			if picks != nil {
				if roster, err = applyPicks(roster, picks, dc.prices); err != nil {
					return rosterdomain.Roster{}, err
				}
			}

			report = rosterdomain.Validate(roster, dc.budget())
			s.metrics.RecordValidation(ctx, report.IsValid)
			if !report.IsValid {
				return rosterdomain.Roster{}, &InvalidRosterError{Report: report}
			}

			now := s.locks.Now()
			row.Status = string(next)
			row.SubmittedAt = &now
			return roster, nil
		})
		if err != nil || saved == nil {
			return result, err
		}

		payload := events.RosterSubmittedPayloadV1{
			CompetitionID: saved.CompetitionID,
			RosterID:      saved.ID,
			OwnerID:       saved.OwnerID,
			Slots:         saved.Slots,
			Spent:         report.Spent,
			SubmittedAt:   *saved.SubmittedAt,
		}
		if err := eventbus.Publish(ctx, s.publisher, eventbus.RosterSubmittedV1, payload); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish roster submitted",
				attr.CompetitionID(saved.CompetitionID),
				attr.RosterID(saved.ID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
		}

		s.logger.InfoContext(ctx, "Roster submitted",
			attr.CompetitionID(saved.CompetitionID),
			attr.RosterID(saved.ID),
			attr.Int64("spent", int64(report.Spent)),
			attr.ExtractCorrelationID(ctx),
		)
		return result, nil
	})
}

// BeginEdit reopens a submitted roster while the competition is open.
func (s *RosterService) BeginEdit(ctx context.Context, rosterID uuid.UUID) (RosterResult, error) {
	return withTelemetry(s, ctx, "BeginEdit", attr.RosterID(rosterID), func(ctx context.Context) (RosterResult, error) {
		result, _, err := s.mutate(ctx, "BeginEdit", rosterID, func(_ context.Context, row *rosterdb.Roster, roster rosterdomain.Roster, _ draftContext, state lockdomain.EditabilityState) (rosterdomain.Roster, error) {
			next, err := lockdomain.Transition(lockdomain.SubmissionStatus(row.Status), lockdomain.ActionBeginEdit, state)
			if err != nil {
				return rosterdomain.Roster{}, err
			}
			row.Status = string(next)
			return roster, nil
		})
		return result, err
	})
}

// ListScorableRosters returns rosters that count toward standings. A roster
// reopened for editing still counts with its last submitted picks.
func (s *RosterService) ListScorableRosters(ctx context.Context, competitionID uuid.UUID) ([]ScorableRoster, error) {
	rows, err := s.repo.ListRostersByStatus(ctx, nil, competitionID, []string{
		string(lockdomain.StatusSubmitted),
		string(lockdomain.StatusEditing),
	})
	if err != nil {
		return nil, err
	}

	out := make([]ScorableRoster, 0, len(rows))
	for _, row := range rows {
		roster, err := row.Domain()
		if err != nil {
			return nil, fmt.Errorf("stored roster %s is malformed: %w", row.ID, err)
		}
		out = append(out, ScorableRoster{
			ID:      row.ID,
			OwnerID: row.OwnerID,
			Status:  lockdomain.SubmissionStatus(row.Status),
			Roster:  roster,
		})
	}
	return out, nil
}
