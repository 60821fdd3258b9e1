package nlu

import (
	"slices"
	"strings"
)

const (
	IntentRepeat = "Repeat"
	IntentElicit = "Elicit"
)

var elicitPhrases = []string{"I didn't understand", "Can you reword your statement?"}

// IntentAnnotator labels system utterances with the intent of the closest
// utterance seen in an annotated corpus.
type IntentAnnotator struct {
	exact  map[string]string
	labels []string
	index  *Index
}

// NewIntentAnnotator indexes the utterance → intent pairs of a corpus.
func NewIntentAnnotator(intents map[string]string) *IntentAnnotator {
	keys := make([]string, 0, len(intents))
	for k := range intents {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = intents[k]
	}
	return &IntentAnnotator{
		exact:  intents,
		labels: labels,
		index:  NewIndex(keys),
	}
}

// Annotate returns the intent label of utterance, or "" without a corpus.
func (a *IntentAnnotator) Annotate(utterance string) string {
	if label, ok := a.exact[utterance]; ok {
		return label
	}
	if strings.Contains(utterance, "The movie plot is about") {
		return IntentRepeat
	}
	for _, p := range elicitPhrases {
		if strings.Contains(utterance, p) {
			return IntentElicit
		}
	}
	i, _ := a.index.Nearest(utterance)
	if i < 0 {
		return ""
	}
	return a.labels[i]
}
