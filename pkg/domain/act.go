package domain

import (
	"slices"
	"strings"
)

// Intent is the tag of a dialogue act.
type Intent string

const (
	IntentInform      Intent = "inform"
	IntentRequest     Intent = "request"
	IntentOffer       Intent = "offer"
	IntentBye         Intent = "bye"
	IntentCantHelp    Intent = "canthelp"
	IntentMoreInfo    Intent = "moreinfo"
	IntentAckFeedback Intent = "ack_feedback"
	IntentFeedback    Intent = "feedback"
	IntentWelcome     Intent = "welcomemsg"
	IntentHelp        Intent = "help"
	IntentNegate      Intent = "negate"
	IntentAffirm      Intent = "affirm"
	IntentDeny        Intent = "deny"
	IntentAck         Intent = "ack"
)

// Operator relates a slot to its value inside an ActItem.
type Operator string

const (
	OpEQ Operator = "="
	OpNE Operator = "!="
	OpLT Operator = "<"
	OpLE Operator = "<="
	OpGT Operator = ">"
	OpGE Operator = ">="
)

// ActItem is a single slot/value pair of a dialogue act.
// An empty Value marks a placeholder that still has to be resolved.
type ActItem struct {
	Slot  string   `json:"slot"`
	Op    Operator `json:"op"`
	Value string   `json:"value"`
}

// Item builds an equality ActItem.
func Item(slot, value string) ActItem {
	return ActItem{Slot: slot, Op: OpEQ, Value: value}
}

func (i ActItem) String() string {
	if i.Value == "" {
		return i.Slot
	}
	return i.Slot + " " + string(i.Op) + " " + i.Value
}

// Act is a dialogue act. Acts are values: they are compared with Equal and
// never mutated after construction.
type Act struct {
	Intent Intent    `json:"intent"`
	Params []ActItem `json:"params,omitempty"`
}

// NewAct creates an act owning a private copy of items.
func NewAct(intent Intent, items ...ActItem) Act {
	var params []ActItem
	if len(items) > 0 {
		params = slices.Clone(items)
	}
	return Act{Intent: intent, Params: params}
}

// Equal reports whether both acts carry the same intent and items.
func (a Act) Equal(other Act) bool {
	return a.Intent == other.Intent && slices.Equal(a.Params, other.Params)
}

// IsEmpty reports whether the act lacks parameters or its first value.
func (a Act) IsEmpty() bool {
	return len(a.Params) == 0 || a.Params[0].Value == ""
}

// Clone returns a deep copy of the act.
func (a Act) Clone() Act {
	return NewAct(a.Intent, a.Params...)
}

func (a Act) String() string {
	parts := make([]string, len(a.Params))
	for i, p := range a.Params {
		parts[i] = p.String()
	}
	return string(a.Intent) + "(" + strings.Join(parts, ", ") + ")"
}

// Dedupe removes repeated acts keeping the first-seen order.
func Dedupe(acts []Act) []Act {
	out := make([]Act, 0, len(acts))
	for _, a := range acts {
		if !ContainsAct(out, a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// ContainsAct reports whether acts holds an act equal to target.
func ContainsAct(acts []Act, target Act) bool {
	return slices.ContainsFunc(acts, target.Equal)
}

// HasIntent reports whether any act carries the given intent.
func HasIntent(acts []Act, intent Intent) bool {
	return slices.ContainsFunc(acts, func(a Act) bool { return a.Intent == intent })
}

// CloneActs deep copies a slice of acts. A nil slice stays nil.
func CloneActs(acts []Act) []Act {
	if acts == nil {
		return nil
	}
	out := make([]Act, len(acts))
	for i, a := range acts {
		out[i] = a.Clone()
	}
	return out
}

// JoinActs renders acts the way conversation logs print them.
func JoinActs(acts []Act) string {
	parts := make([]string, len(acts))
	for i, a := range acts {
		parts[i] = a.String()
	}
	return strings.Join(parts, "; ")
}
