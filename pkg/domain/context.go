package domain

import (
	"fmt"
	"maps"
	"slices"
)

// NotEvaluated is returned by GetFeedback for offers without feedback.
const NotEvaluated = "not evaluated"

// Offer is a value offered to the user and the feedback it received.
type Offer struct {
	Value    string `json:"value"`
	Feedback string `json:"feedback,omitempty"`
}

// Context tracks offers and feedback across the turns of a dialogue.
type Context struct {
	// Params maps each tracked field to its offers in insertion order.
	Params map[string][]Offer `json:"params"`

	// RequestFeedback asks the policy to request feedback on FeedbackSlot.
	RequestFeedback bool   `json:"request_feedback"`
	FeedbackSlot    string `json:"feedback_slot,omitempty"`

	// FeedbackGiven is set for the turn right after the user gave feedback.
	FeedbackGiven bool `json:"feedback_given"`

	// Reviews keeps the raw feedback per offered item.
	Reviews map[string]string `json:"reviews,omitempty"`
}

// NewContext creates a context tracking the given fields.
func NewContext(fields []string) *Context {
	c := &Context{}
	c.Initialize(fields)
	return c
}

// Initialize rebuilds params from fields and clears every flag.
// An empty field list yields a context that tracks nothing.
func (c *Context) Initialize(fields []string) {
	c.Params = make(map[string][]Offer, len(fields))
	for _, f := range fields {
		c.Params[f] = nil
	}
	c.RequestFeedback = false
	c.FeedbackSlot = ""
	c.FeedbackGiven = false
	c.Reviews = make(map[string]string)
}

func (c *Context) offers(field string) ([]Offer, error) {
	offers, ok := c.Params[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, field)
	}
	return offers, nil
}

func indexOf(offers []Offer, value string) int {
	return slices.IndexFunc(offers, func(o Offer) bool { return o.Value == value })
}

// AddOffer records value as offered for field. Offering a value again
// resets its feedback but keeps its original position.
func (c *Context) AddOffer(field, value string) error {
	offers, err := c.offers(field)
	if err != nil {
		return err
	}
	if i := indexOf(offers, value); i >= 0 {
		offers[i].Feedback = ""
		return nil
	}
	c.Params[field] = append(offers, Offer{Value: value})
	return nil
}

// UpdateOffer sets the feedback of value, adding it when not yet offered.
func (c *Context) UpdateOffer(field, value, feedback string) error {
	offers, err := c.offers(field)
	if err != nil {
		return err
	}
	if i := indexOf(offers, value); i >= 0 {
		offers[i].Feedback = feedback
		return nil
	}
	c.Params[field] = append(offers, Offer{Value: value, Feedback: feedback})
	return nil
}

// GetFeedback returns the feedback stored for value, or NotEvaluated.
func (c *Context) GetFeedback(field, value string) (string, error) {
	offers, err := c.offers(field)
	if err != nil {
		return "", err
	}
	if i := indexOf(offers, value); i >= 0 && offers[i].Feedback != "" {
		return offers[i].Feedback, nil
	}
	return NotEvaluated, nil
}

// PreviousRecommendations returns the values offered for field, oldest first.
func (c *Context) PreviousRecommendations(field string) ([]string, error) {
	offers, err := c.offers(field)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.Value
	}
	return out, nil
}

// Clone returns a deep copy of the context.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := *c
	out.Params = make(map[string][]Offer, len(c.Params))
	for k, v := range c.Params {
		out.Params[k] = slices.Clone(v)
	}
	out.Reviews = maps.Clone(c.Reviews)
	return &out
}
