package rosterdomain

import "errors"

// Input malformation. These reject the whole request; nothing is partially
// applied.
var (
	// ErrUnknownSlot indicates a slot ID outside M1..M3, W1..W3.
	ErrUnknownSlot = errors.New("unknown slot id")

	// ErrDuplicateSlot indicates the same slot ID was supplied twice.
	ErrDuplicateSlot = errors.New("slot id supplied more than once")

	// ErrIncompleteSlot indicates a slot with a competitor but no price, or the reverse.
	ErrIncompleteSlot = errors.New("slot must set competitor and price together")

	// ErrCompetitorNotInPriceList indicates a competitor ID the price list does not know.
	ErrCompetitorNotInPriceList = errors.New("competitor not in price list")

	// ErrGenderMismatch indicates a competitor placed in a slot of the other pool.
	ErrGenderMismatch = errors.New("competitor gender does not match slot")

	// ErrAlreadySelected indicates a competitor that already occupies another slot.
	ErrAlreadySelected = errors.New("competitor already selected")
)

// Messages collected in ValidationReport.Errors.
const (
	MsgRosterIncomplete = "roster incomplete"
	msgDuplicate        = "duplicate competitor %s in slots %s"
	msgOverBudget       = "over budget: spent %s of %s"
)
