package rosterdomain

import (
	"fmt"
	"strconv"
)

// Money is a whole-dollar amount. Prices and budgets never carry cents.
type Money int64

// String renders the amount as $28,000.
func (m Money) String() string {
	sign := ""
	v := uint64(m)
	if m < 0 {
		sign = "-"
		// two's complement negation stays exact for math.MinInt64
		v = -v
	}
	digits := strconv.FormatUint(v, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}

// Gender identifies the competitor pool a slot draws from.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "W"
)

// Valid reports whether g is one of the two pools.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// SlotID names one of the six roster positions.
type SlotID string

const (
	SlotM1 SlotID = "M1"
	SlotM2 SlotID = "M2"
	SlotM3 SlotID = "M3"
	SlotW1 SlotID = "W1"
	SlotW2 SlotID = "W2"
	SlotW3 SlotID = "W3"
)

// SlotCount is the fixed size of every roster.
const SlotCount = 6

// AllSlots lists the slots in canonical order.
var AllSlots = [SlotCount]SlotID{SlotM1, SlotM2, SlotM3, SlotW1, SlotW2, SlotW3}

// Index returns the canonical position of the slot, or -1 if unknown.
func (s SlotID) Index() int {
	for i, id := range AllSlots {
		if id == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known slot.
func (s SlotID) Valid() bool {
	return s.Index() >= 0
}

// Gender returns the pool the slot requires.
func (s SlotID) Gender() Gender {
	if len(s) > 0 && s[0] == 'W' {
		return GenderFemale
	}
	return GenderMale
}

// Competitor is immutable reference data loaded from the price list.
type Competitor struct {
	ID                  string  `json:"id"`
	DisplayName         string  `json:"display_name"`
	CountryCode         string  `json:"country_code"`
	Gender              Gender  `json:"gender"`
	PersonalBestSeconds float64 `json:"personal_best_seconds"`
	MarathonRank        *int    `json:"marathon_rank,omitempty"`
	Price               Money   `json:"price"`
}

// PriceList maps competitor ID to the competitor record, prices included.
type PriceList map[string]Competitor

// RosterSlot is one position in a roster. CompetitorID and PriceAtSelection
// are both nil for an empty slot.
type RosterSlot struct {
	SlotID           SlotID  `json:"slot_id"`
	CompetitorID     *string `json:"competitor_id"`
	PriceAtSelection *Money  `json:"price_at_selection"`
}

// Filled reports whether a competitor occupies the slot.
func (s RosterSlot) Filled() bool {
	return s.CompetitorID != nil
}

// Roster always holds exactly six slots in canonical order. The zero value is
// not usable; build one with EmptyRoster or NewRoster.
type Roster struct {
	slots [SlotCount]RosterSlot
}

// EmptyRoster returns a roster with all six slots unfilled.
func EmptyRoster() Roster {
	var r Roster
	for i, id := range AllSlots {
		r.slots[i] = RosterSlot{SlotID: id}
	}
	return r
}

// NewRoster builds a roster from a slot list. Slots that are not listed stay
// empty. Unknown or repeated slot IDs, and half-filled slots, are malformed.
func NewRoster(slots []RosterSlot) (Roster, error) {
	r := EmptyRoster()
	seen := make(map[SlotID]bool, len(slots))
	for _, s := range slots {
		idx := s.SlotID.Index()
		if idx < 0 {
			return Roster{}, fmt.Errorf("%w: %q", ErrUnknownSlot, s.SlotID)
		}
		if seen[s.SlotID] {
			return Roster{}, fmt.Errorf("%w: %q", ErrDuplicateSlot, s.SlotID)
		}
		seen[s.SlotID] = true
		if (s.CompetitorID == nil) != (s.PriceAtSelection == nil) {
			return Roster{}, fmt.Errorf("%w: slot %s", ErrIncompleteSlot, s.SlotID)
		}
		r.slots[idx] = copySlot(s)
	}
	return r, nil
}

// Slots returns a copy of the six slots in canonical order.
func (r Roster) Slots() []RosterSlot {
	out := make([]RosterSlot, SlotCount)
	for i, s := range r.slots {
		out[i] = copySlot(s)
	}
	return out
}

// Slot returns the slot with the given ID.
func (r Roster) Slot(id SlotID) (RosterSlot, bool) {
	idx := id.Index()
	if idx < 0 {
		return RosterSlot{}, false
	}
	return copySlot(r.slots[idx]), true
}

// CompetitorIDs returns the IDs seated in filled slots, in slot order.
func (r Roster) CompetitorIDs() []string {
	ids := make([]string, 0, SlotCount)
	for _, s := range r.slots {
		if s.CompetitorID != nil {
			ids = append(ids, *s.CompetitorID)
		}
	}
	return ids
}

// withSlot returns a copy of r with the slot replaced.
func (r Roster) withSlot(s RosterSlot) Roster {
	out := r
	out.slots[s.SlotID.Index()] = copySlot(s)
	return out
}

func copySlot(s RosterSlot) RosterSlot {
	out := RosterSlot{SlotID: s.SlotID}
	if s.CompetitorID != nil {
		id := *s.CompetitorID
		out.CompetitorID = &id
	}
	if s.PriceAtSelection != nil {
		p := *s.PriceAtSelection
		out.PriceAtSelection = &p
	}
	return out
}
