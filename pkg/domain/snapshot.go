package domain

import (
	"slices"
	"time"
)

// Snapshot is everything needed to resume a dialogue later.
type Snapshot struct {
	SessionID       string    `json:"session_id"`
	State           *State    `json:"state"`
	Context         *Context  `json:"context"`
	DialogueCounter int       `json:"dialogue_counter"`
	Turn            int       `json:"turn"`
	LastResult      []Record  `json:"last_result,omitempty"`
	History         []string  `json:"history,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Sealed holds the encrypted snapshot when the store encrypts at rest.
	// The dialogue fields are empty in that case.
	Sealed []byte `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.State = s.State.Clone()
	c.Context = s.Context.Clone()
	c.LastResult = CloneRecords(s.LastResult)
	c.History = slices.Clone(s.History)
	c.Sealed = slices.Clone(s.Sealed)
	return &c
}
