package dialogue

import (
	"log/slog"
	"slices"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/domain"
)

// DefaultContextSlots are the fields whose offers are tracked across turns.
var DefaultContextSlots = []string{"name"}

// Tracker keeps the dialogue state and context up to date with user input,
// database results and the system's own acts.
type Tracker struct {
	state        *domain.State
	context      *domain.Context
	contextSlots []string
	itemSlot     string
	maxResults   int
	logger       *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the logger.
func WithTrackerLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTracker creates a tracker over the given state slots. Offers and
// feedback are keyed by the first context slot.
func NewTracker(slots, contextSlots []string, opts ...TrackerOption) *Tracker {
	if len(contextSlots) == 0 {
		contextSlots = DefaultContextSlots
	}
	t := &Tracker{
		state:        domain.NewState(slots),
		context:      domain.NewContext(contextSlots),
		contextSlots: slices.Clone(contextSlots),
		itemSlot:     contextSlots[0],
		maxResults:   MaxDBResults,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) itemValue(r domain.Record) string {
	return r[t.itemSlot]
}

// Initialize starts a new dialogue, optionally seeding a user goal.
func (t *Tracker) Initialize(goal map[string]string) {
	t.state.Initialize(goal)
	t.context.Initialize(t.contextSlots)
}

// State returns the live state.
func (t *Tracker) State() *domain.State { return t.state }

// Context returns the live context.
func (t *Tracker) Context() *domain.Context { return t.context }

// ContextSlots returns the fields tracked by the context.
func (t *Tracker) ContextSlots() []string { return t.contextSlots }

// Restore replaces the live state and context.
func (t *Tracker) Restore(state *domain.State, dctx *domain.Context) {
	t.state = state
	t.context = dctx
}

// UpdateState applies the acts of a user turn.
func (t *Tracker) UpdateState(acts []domain.Act) error {
	s, c := t.state, t.context
	s.UserActs = domain.CloneActs(acts)
	s.Turn++

	for _, act := range acts {
		switch act.Intent {
		case domain.IntentInform:
			for _, p := range act.Params {
				if p.Value != "" {
					s.Fill(p.Slot, p.Value)
				}
			}

		case domain.IntentRequest:
			if len(act.Params) > 0 && act.Params[0].Slot != "" {
				s.RequestedSlot = act.Params[0].Slot
			}

		case domain.IntentAffirm:
			if s.HasItemInFocus() && s.SystemMadeOffer {
				c.RequestFeedback = true
				c.FeedbackSlot = s.ItemInFocus.Name()
			}

		case domain.IntentNegate, domain.IntentDeny:
			c.RequestFeedback = false

		case domain.IntentFeedback:
			if !s.HasItemInFocus() || act.IsEmpty() {
				continue
			}
			review := act.Params[0].Value
			if err := c.UpdateOffer(t.itemSlot, t.itemValue(s.ItemInFocus), review); err != nil {
				return err
			}
			c.Reviews[s.ItemInFocus.Name()] = review
			c.FeedbackGiven = true
			c.RequestFeedback = false

		case domain.IntentBye:
			s.Terminal = true
		}
	}
	return nil
}

// UpdateStateDB stores the results of a lookup. When acts ask for an offer,
// or nothing is in focus yet, it focuses the first record that was not
// recommended yet.
func (t *Tracker) UpdateStateDB(acts []domain.Act, results []domain.Record, entropies map[string]*float64) {
	s := t.state
	s.DBResult = domain.CloneRecords(results)
	s.SlotEntropies = entropies
	if t.maxResults > 0 {
		s.DBMatchesRatio = float64(len(results)) / float64(t.maxResults)
	}
	if len(results) == 0 {
		return
	}
	if s.HasItemInFocus() && !domain.HasIntent(acts, domain.IntentOffer) {
		return
	}

	seen, err := t.context.PreviousRecommendations(t.itemSlot)
	if err != nil {
		t.logger.Warn("failed to read previous recommendations", "slot", t.itemSlot, "err", err)
	}
	focus := results[0]
	for _, r := range results {
		if !slices.Contains(seen, t.itemValue(r)) {
			focus = r
			break
		}
	}
	s.ItemInFocus = focus.Clone()
	s.SystemMadeOffer = false
}

// UpdateStateSysAct records the acts the system is about to emit.
func (t *Tracker) UpdateStateSysAct(acts []domain.Act) {
	s, c := t.state, t.context
	s.LastSysActs = domain.CloneActs(acts)
	for _, act := range acts {
		switch act.Intent {
		case domain.IntentOffer:
			s.SystemMadeOffer = true
		case domain.IntentFeedback:
			c.RequestFeedback = false
		case domain.IntentBye:
			s.Terminal = true
		}
	}
}
