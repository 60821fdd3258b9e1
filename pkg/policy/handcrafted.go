// Package policy implements the system's decision making.
package policy

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ontology"
)

// NotAvailable is informed when the item in focus lacks the requested slot.
const NotAvailable = "not available"

// NoInfo is informed for filled slots absent from the item in focus.
const NoInfo = "no info"

// UnknownItem names an offered item that has no name.
const UnknownItem = "unknown"

// Handcrafted is a rule-based slot-filling policy.
type Handcrafted struct {
	ontology *ontology.Ontology
	rnd      *rand.Rand
}

// Option configures a Handcrafted policy.
type Option func(*Handcrafted)

// WithRand sets the random source used for slot choice.
func WithRand(r *rand.Rand) Option {
	return func(p *Handcrafted) {
		p.rnd = r
	}
}

// NewHandcrafted creates the policy for an ontology.
func NewHandcrafted(o *ontology.Ontology, opts ...Option) (*Handcrafted, error) {
	if o == nil {
		return nil, errors.New("handcrafted policy: unacceptable ontology <nil>")
	}
	p := &Handcrafted{
		ontology: o,
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Initialize is a no-op: the policy keeps no per-dialogue state.
func (p *Handcrafted) Initialize() {}

// Restart is a no-op: the policy keeps no per-dialogue state.
func (p *Handcrafted) Restart() {}

// NextAction decides the system acts for the current turn.
// It clears consumed flags on state and dctx (requested slot, feedback given).
func (p *Handcrafted) NextAction(state *domain.State, dctx *domain.Context) []domain.Act {
	var acts []domain.Act

	if state.IsTerminal() {
		return []domain.Act{domain.NewAct(domain.IntentBye)}
	}

	if dctx.RequestFeedback {
		return []domain.Act{domain.NewAct(domain.IntentFeedback, domain.Item("name", dctx.FeedbackSlot))}
	}

	if dctx.FeedbackGiven {
		acts = append(acts, domain.NewAct(domain.IntentAckFeedback))
		dctx.FeedbackGiven = false
	} else {
		if state.RequestedSlot != "" && state.HasItemInFocus() && state.SystemMadeOffer {
			return []domain.Act{p.answerRequest(state)}
		}
		if reply, done := p.scanUserActs(state, &acts); done {
			return reply
		}
	}

	slot := p.chooseSlot(state)
	if slot != "" && !state.IsFilled(slot) {
		return []domain.Act{domain.NewAct(domain.IntentRequest, domain.Item(slot, ""))}
	}

	if state.HasItemInFocus() {
		name := state.ItemInFocus.Name()
		if name == "" {
			name = UnknownItem
		}
		acts = append(acts, domain.NewAct(domain.IntentOffer, domain.Item("name", name)))
		for _, s := range state.FilledSlots() {
			value, ok := state.ItemInFocus[s]
			switch {
			case !ok:
				acts = append(acts, domain.NewAct(domain.IntentInform, domain.Item(s, NoInfo)))
			case s != "id" && s != "name":
				acts = append(acts, domain.NewAct(domain.IntentInform, domain.Item(s, value)))
			}
		}
		return acts
	}

	return []domain.Act{domain.NewAct(domain.IntentCantHelp)}
}

func (p *Handcrafted) answerRequest(state *domain.State) domain.Act {
	slot := state.RequestedSlot
	state.RequestedSlot = ""
	value := NotAvailable
	if v := state.ItemInFocus[slot]; v != "" {
		value = v
		state.RequestedSlotFilled = append(state.RequestedSlotFilled, slot)
	}
	return domain.NewAct(domain.IntentInform, domain.Item(slot, value))
}

// scanUserActs handles help, canthelp and moreinfo. When done is false the
// caller continues with slot filling; acts may have been extended.
func (p *Handcrafted) scanUserActs(state *domain.State, acts *[]domain.Act) ([]domain.Act, bool) {
	for _, act := range state.UserActs {
		switch act.Intent {
		case domain.IntentHelp:
			return []domain.Act{act}, true

		case domain.IntentCantHelp:
			last := state.LastSysActs
			if len(last) == 0 {
				*acts = append(*acts, act)
				continue
			}
			if last[0].Intent == domain.IntentCantHelp {
				last = last[1:]
			}
			if len(last) > 0 && last[0].Intent == domain.IntentRequest {
				return []domain.Act{act, domain.NewAct(domain.IntentMoreInfo, act.Params...)}, true
			}
			return []domain.Act{act, p.moreInfo(state)}, true

		case domain.IntentMoreInfo:
			if len(state.UserActs) == 1 {
				return []domain.Act{p.moreInfo(state)}, true
			}
		}
	}
	return nil, false
}

// moreInfo lists the requestable slots not yet answered for the item in focus.
func (p *Handcrafted) moreInfo(state *domain.State) domain.Act {
	var remaining []string
	for _, s := range p.ontology.Requestable {
		if !slices.Contains(state.RequestedSlotFilled, s) {
			remaining = append(remaining, s)
		}
	}
	return domain.NewAct(domain.IntentMoreInfo, domain.Item(strings.Join(remaining, " "), ""))
}

func (p *Handcrafted) chooseSlot(state *domain.State) string {
	candidates := slices.Clone(p.ontology.SystemRequestable)
	if len(candidates) == 0 {
		return ""
	}

	if !state.EntropyAvailable() {
		slot := candidates[p.rnd.IntN(len(candidates))]
		for state.IsFilled(slot) && len(candidates) > 1 {
			candidates = remove(candidates, slot)
			slot = candidates[p.rnd.IntN(len(candidates))]
		}
		return slot
	}

	ties := maxEntropy(state.SlotEntropies, candidates, true)
	if len(ties) == 0 {
		return ""
	}
	slot := ties[p.rnd.IntN(len(ties))]
	for state.IsFilled(slot) && entropy(state.SlotEntropies, slot) > 0 && len(candidates) > 1 {
		candidates = remove(candidates, slot)
		ties = maxEntropy(state.SlotEntropies, candidates, false)
		if len(ties) == 0 {
			break
		}
		slot = ties[p.rnd.IntN(len(ties))]
	}
	return slot
}

func entropy(entropies map[string]*float64, slot string) float64 {
	if v := entropies[slot]; v != nil {
		return *v
	}
	return 0
}

// maxEntropy returns, in sorted order, the candidates whose entropy equals
// the global maximum.
func maxEntropy(entropies map[string]*float64, candidates []string, positive bool) []string {
	first := true
	var best float64
	for _, v := range entropies {
		if v != nil && (first || *v > best) {
			best = *v
			first = false
		}
	}
	if first || (positive && best <= 0) {
		return nil
	}
	var out []string
	for _, c := range candidates {
		if v := entropies[c]; v != nil && *v == best {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

func remove(list []string, item string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == item })
}
