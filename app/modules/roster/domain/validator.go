package rosterdomain

import (
	"fmt"
	"strings"
)

// ValidationReport summarises a roster against the salary cap. It is plain
// data; callers render or store it as they see fit.
type ValidationReport struct {
	TotalBudget       Money
	Spent             Money
	Remaining         Money
	FilledSlotCount   int
	RequiredSlotCount int
	Errors            []string
	IsValid           bool
}

// Validate checks a roster against the salary cap and composition rules.
//
// Violations are collected rather than returned as errors so the caller sees
// every problem at once. Errors are reported in a fixed order: duplicate
// competitors, incompleteness, then budget. Remaining is not clamped; a
// negative value signals an over-budget roster.
func Validate(roster Roster, totalBudget Money) ValidationReport {
	report := ValidationReport{
		TotalBudget:       totalBudget,
		RequiredSlotCount: SlotCount,
		Errors:            []string{},
	}

	occupied := make(map[string][]SlotID, SlotCount)
	order := make([]string, 0, SlotCount)

	for _, slot := range roster.slots {
		if !slot.Filled() {
			continue
		}
		report.FilledSlotCount++
		if slot.PriceAtSelection != nil {
			report.Spent += *slot.PriceAtSelection
		}

		id := *slot.CompetitorID
		if _, ok := occupied[id]; !ok {
			order = append(order, id)
		}
		occupied[id] = append(occupied[id], slot.SlotID)
	}

	for _, id := range order {
		if slots := occupied[id]; len(slots) > 1 {
			report.Errors = append(report.Errors, fmt.Sprintf(msgDuplicate, id, joinSlots(slots)))
		}
	}

	if report.FilledSlotCount < SlotCount {
		report.Errors = append(report.Errors, MsgRosterIncomplete)
	}

	if report.Spent > totalBudget {
		report.Errors = append(report.Errors, fmt.Sprintf(msgOverBudget, report.Spent, totalBudget))
	}

	report.Remaining = totalBudget - report.Spent
	report.IsValid = report.FilledSlotCount == SlotCount && len(report.Errors) == 0
	return report
}

// CanAfford reports whether the candidate fits under the cap once the slot
// being edited is vacated. Excluding that slot lets a user swap an occupant
// without being blocked by the selection they are about to replace.
func CanAfford(roster Roster, editing SlotID, candidate Competitor, totalBudget Money) bool {
	var spent Money
	for _, slot := range roster.slots {
		if slot.SlotID == editing || slot.PriceAtSelection == nil {
			continue
		}
		spent += *slot.PriceAtSelection
	}
	return spent+candidate.Price <= totalBudget
}

// IsAlreadySelected reports whether any slot references the competitor.
func IsAlreadySelected(roster Roster, competitorID string) bool {
	for _, slot := range roster.slots {
		if slot.CompetitorID != nil && *slot.CompetitorID == competitorID {
			return true
		}
	}
	return false
}

// CheckSelections rejects rosters referencing competitors that the price list
// does not know, or placing a competitor in the wrong gender pool.
func CheckSelections(roster Roster, prices PriceList) error {
	for _, slot := range roster.slots {
		if !slot.Filled() {
			continue
		}
		if err := checkCompetitor(slot.SlotID, *slot.CompetitorID, prices); err != nil {
			return err
		}
	}
	return nil
}

// Select seats a competitor in a slot at today's price and returns the new
// roster. The original roster is left untouched.
//
// Selecting the competitor already in the slot is a no-op that keeps the
// original price. Selecting a competitor seated elsewhere is rejected with
// ErrAlreadySelected.
func Select(roster Roster, slotID SlotID, competitorID string, prices PriceList) (Roster, error) {
	current, ok := roster.Slot(slotID)
	if !ok {
		return Roster{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slotID)
	}
	if err := checkCompetitor(slotID, competitorID, prices); err != nil {
		return Roster{}, err
	}

	if current.CompetitorID != nil && *current.CompetitorID == competitorID {
		return roster, nil
	}
	if IsAlreadySelected(roster, competitorID) {
		return Roster{}, fmt.Errorf("%w: %s", ErrAlreadySelected, competitorID)
	}

	price := prices[competitorID].Price
	id := competitorID
	return roster.withSlot(RosterSlot{SlotID: slotID, CompetitorID: &id, PriceAtSelection: &price}), nil
}

// Clear empties a slot.
func Clear(roster Roster, slotID SlotID) (Roster, error) {
	if !slotID.Valid() {
		return Roster{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slotID)
	}
	return roster.withSlot(RosterSlot{SlotID: slotID}), nil
}

func checkCompetitor(slotID SlotID, competitorID string, prices PriceList) error {
	c, ok := prices[competitorID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCompetitorNotInPriceList, competitorID)
	}
	if c.Gender != slotID.Gender() {
		return fmt.Errorf("%w: %s (%s) in slot %s", ErrGenderMismatch, competitorID, c.Gender, slotID)
	}
	return nil
}

func joinSlots(slots []SlotID) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
