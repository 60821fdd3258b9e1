package domain

import (
	"maps"
	"slices"
)

// DefaultSlots is used when a State is created without slots.
var DefaultSlots = []string{"genres"}

// Record is a database row: field name to value.
type Record map[string]string

// Name returns the record's "name" field.
func (r Record) Name() string {
	return r["name"]
}

// Clone returns a copy of the record. A nil record stays nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// CloneRecords deep copies a slice of records.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// State is the slot-filling state of a single dialogue.
type State struct {
	// Slots is the ordered set of domain slots, fixed at construction.
	Slots []string `json:"slots"`

	// SlotsFilled maps every slot to its value. An empty string means unset.
	SlotsFilled map[string]string `json:"slots_filled"`

	// RequestedSlot is the slot the user most recently asked about.
	RequestedSlot string `json:"requested_slot,omitempty"`

	// UserActs holds the acts of the latest user turn.
	UserActs []Act `json:"user_acts,omitempty"`

	// LastSysActs holds the acts of the latest system turn.
	LastSysActs []Act `json:"last_sys_acts,omitempty"`

	SystemMadeOffer bool `json:"system_made_offer"`

	// ItemInFocus is the record currently being discussed, nil when none.
	ItemInFocus Record `json:"item_in_focus,omitempty"`

	// RequestedSlotFilled lists the slots already answered for ItemInFocus.
	RequestedSlotFilled []string `json:"requested_slot_filled,omitempty"`

	DBResult       []Record `json:"db_result,omitempty"`
	DBMatchesRatio float64  `json:"db_matches_ratio"`

	// SlotEntropies maps system-requestable slots to their entropy over the
	// current results. Nil values are placeholders.
	SlotEntropies map[string]*float64 `json:"slot_entropies,omitempty"`

	Terminal bool              `json:"is_terminal_state"`
	Turn     int               `json:"turn"`
	UserGoal map[string]string `json:"user_goal,omitempty"`
}

// NewState creates a clean state over the given slots.
func NewState(slots []string) *State {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	s := &State{Slots: slices.Clone(slots)}
	s.Initialize(nil)
	return s
}

// Initialize resets every per-dialogue field and optionally seeds a goal.
func (s *State) Initialize(goal map[string]string) {
	s.SlotsFilled = make(map[string]string, len(s.Slots))
	for _, slot := range s.Slots {
		s.SlotsFilled[slot] = ""
	}
	s.RequestedSlot = ""
	s.UserActs = nil
	s.LastSysActs = nil
	s.SystemMadeOffer = false
	s.ItemInFocus = nil
	s.RequestedSlotFilled = nil
	s.DBResult = nil
	s.DBMatchesRatio = 0
	s.SlotEntropies = nil
	s.Terminal = false
	s.Turn = 0
	s.UserGoal = maps.Clone(goal)
}

// IsTerminal reports whether the dialogue should end.
func (s *State) IsTerminal() bool {
	return s.Terminal
}

// HasSlot reports whether slot belongs to the domain.
func (s *State) HasSlot(slot string) bool {
	return slices.Contains(s.Slots, slot)
}

// IsFilled reports whether slot holds a value.
func (s *State) IsFilled(slot string) bool {
	return s.SlotsFilled[slot] != ""
}

// Fill sets the value of a known slot. Unknown slots are ignored.
func (s *State) Fill(slot, value string) bool {
	if !s.HasSlot(slot) {
		return false
	}
	s.SlotsFilled[slot] = value
	return true
}

// FilledSlots returns the filled slots in slot order.
func (s *State) FilledSlots() []string {
	var out []string
	for _, slot := range s.Slots {
		if s.IsFilled(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// UnfilledSlots returns the unset slots in slot order.
func (s *State) UnfilledSlots() []string {
	var out []string
	for _, slot := range s.Slots {
		if !s.IsFilled(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// HasItemInFocus reports whether a record is being discussed.
func (s *State) HasItemInFocus() bool {
	return len(s.ItemInFocus) > 0
}

// EntropyAvailable reports whether at least one slot entropy is set.
func (s *State) EntropyAvailable() bool {
	for _, v := range s.SlotEntropies {
		if v != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, independent of later mutations of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Slots = slices.Clone(s.Slots)
	c.SlotsFilled = maps.Clone(s.SlotsFilled)
	c.UserActs = CloneActs(s.UserActs)
	c.LastSysActs = CloneActs(s.LastSysActs)
	c.ItemInFocus = s.ItemInFocus.Clone()
	c.RequestedSlotFilled = slices.Clone(s.RequestedSlotFilled)
	c.DBResult = CloneRecords(s.DBResult)
	c.UserGoal = maps.Clone(s.UserGoal)
	if s.SlotEntropies != nil {
		c.SlotEntropies = make(map[string]*float64, len(s.SlotEntropies))
		for k, v := range s.SlotEntropies {
			if v != nil {
				f := *v
				c.SlotEntropies[k] = &f
			} else {
				c.SlotEntropies[k] = nil
			}
		}
	}
	return &c
}
