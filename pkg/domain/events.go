package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDialogueStart EventType = "dialogue_start"
	EventDialogueEnd   EventType = "dialogue_end"
	EventTurn          EventType = "turn"
	EventLookup        EventType = "db_lookup"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Dialogue  int       `json:"dialogue"`
}

// TurnEvent describes one processed user turn.
type TurnEvent struct {
	EventBase
	Turn     int   `json:"turn"`
	UserActs []Act `json:"user_acts"`
	SysActs  []Act `json:"sys_acts"`
	Forced   bool  `json:"forced,omitempty"`
}

// LookupEvent describes a database lookup.
type LookupEvent struct {
	EventBase
	Results int   `json:"results"`
	Cached  bool  `json:"cached,omitempty"`
	Err     error `json:"-"`
}

// DialogueEvent marks the start or end of a dialogue.
type DialogueEvent struct {
	EventBase
	Turns    int  `json:"turns"`
	Terminal bool `json:"terminal"`
}

// LifecycleHooks defines callbacks for dialogue observability.
type LifecycleHooks struct {
	OnDialogueStart func(context.Context, *DialogueEvent)
	OnDialogueEnd   func(context.Context, *DialogueEvent)
	OnTurn          func(context.Context, *TurnEvent)
	OnLookup        func(context.Context, *LookupEvent)
}

// Merge returns hooks calling h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnDialogueStart: chain(h.OnDialogueStart, other.OnDialogueStart),
		OnDialogueEnd:   chain(h.OnDialogueEnd, other.OnDialogueEnd),
		OnTurn:          chain(h.OnTurn, other.OnTurn),
		OnLookup:        chain(h.OnLookup, other.OnLookup),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
