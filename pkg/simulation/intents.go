package simulation

import "slices"

// Speaker tags of corpus turns.
const (
	UserTag  = "user"
	AgentTag = "agent"
)

// Agenda intents with a fixed role in sampling.
const (
	StartIntent    = "Non-disclose"
	StopIntent     = "Stop"
	DiscloseIntent = "Disclose"
)

// Coarse QRFA labels.
const (
	LabelStart    = "START"
	LabelStop     = "STOP"
	LabelQuery    = "QUERY"
	LabelFeedback = "FEEDBACK"
	LabelRequest  = "REQUEST"
	LabelAnswer   = "ANSWER"
	LabelMissing  = "MISSING"
)

// IntentMatch lists, per pending user intent, the bot intents that answer
// it. A matching bot reply lets the user move on to the next agenda item.
var IntentMatch = map[string][]string{
	"Non-disclose":          {"Elicit", "Inquire"},
	"Non-disclose-review":   {"Elicit", "Inquire"},
	"Non-disclose-complain": {"Elicit", "Inquire"},
	"Disclose":              {"Elicit", "Show", "List", "Show", "Suggest", "Clarify"},
	"Disclose-review":       {"Elicit", "List", "Show", "Suggest", "Clarify"},
	"Disclose-repeat":       {"Elicit", "List", "Show", "Suggest", "Clarify"},
	"Revise":                {"Elicit", "Show", "List", "Suggest", "Clarify"},
	"Refine":                {"Elicit", "Show", "List", "Suggest", "Clarify"},
	"Expand":                {"Elicit", "Show", "List", "Suggest", "Clarify"},
	"Note":                  {"Record", "Repeat"},
	"Note-end":              {"Record", "Repeat"},
	"Note-speechless":       {"Record"},
	"Interrupt":             {"Suggest", "Elicit", "Back"},
	"Complete":              {"End"},
	"Complete-complain":     {"End"},
	"Compare":               {},
	"Back":                  {"List"},
	"Interrogate":           {"Explain"},
	"Inquire":               {"List", "Elicit"},
	"Repeat":                {"Repeat"},
	"More":                  {"List", "More"},
	"Similar":               {"Elicit", "Similar", "List"},
	"List":                  {"List"},
	"Subset":                {"Subset"},
	"Navigate":              {"Show"},
	"Note-yes":              {"Elicit-review"},
	"Note-dislike":          {"List", "Elicit"},
	"Note-complain":         {"Elicit"},
	"...":                   {},
}

// User intents that query the system, and those that give feedback.
var (
	QueryIntents = []string{
		"Disclose", "Disclose-repeat", "Disclose-review", "Non-disclose",
		"Non-disclose-complain", "Revise", "Refine", "Expand", "List", "Compare",
		"Similar", "Repeat", "Inquire", "Navigate",
	}
	FeedbackIntents = []string{
		"Non-disclose-complain", "Note-yes", "Note-dislike", "Note-complain",
		"Note-speechless", "Non-disclose-review", "Subset", "Interrupt",
		"Interrogate", "Back", "More", "Note", "Note-end", "Complete",
		"Complete-complain", "...",
	}
)

// Bot intents that ask the user something, and those that answer.
var (
	RequestIntents = []string{"Elicit", "Elicit-review", "Inquire", "Suggest", "Clarify"}
	AnswerIntents  = []string{"Show", "List", "Similar", "Record", "Repeat", "Back", "End", "More", "Subset"}
)

// MovieListIntents are bot intents whose utterance names movies.
var MovieListIntents = []string{"Clarify", "List", "Similar"}

// CoarseCounts is the fixed QRFA transition table used to rank corpus
// dialogues for the qrfa agenda.
var CoarseCounts = map[string]map[string]int{
	LabelAnswer:   {LabelAnswer: 103, LabelFeedback: 289, LabelQuery: 418, LabelRequest: 45},
	LabelFeedback: {LabelAnswer: 283, LabelFeedback: 3, LabelRequest: 55},
	LabelQuery:    {LabelAnswer: 539, LabelRequest: 227},
	LabelRequest:  {LabelAnswer: 2, LabelFeedback: 49, LabelQuery: 274, LabelRequest: 5},
}

// Matches reports whether a bot intent answers the pending user intent.
func Matches(current, bot string) bool {
	return slices.Contains(IntentMatch[current], bot)
}

// CoarseLabel maps a turn onto QUERY, FEEDBACK, REQUEST or ANSWER.
func CoarseLabel(t Turn) string {
	switch t.Speaker {
	case UserTag:
		if slices.Contains(QueryIntents, t.Intent) {
			return LabelQuery
		}
		return LabelFeedback
	case AgentTag:
		return agentLabel(t.Intent)
	}
	return LabelMissing
}

// QRFALabel keeps user intents and coarsens agent intents.
func QRFALabel(t Turn) string {
	switch t.Speaker {
	case UserTag:
		return t.Intent
	case AgentTag:
		return agentLabel(t.Intent)
	}
	return LabelMissing
}

func agentLabel(intent string) string {
	if slices.Contains(RequestIntents, intent) {
		return LabelRequest
	}
	return LabelAnswer
}
