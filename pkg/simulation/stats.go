package simulation

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Dist is an occurrence table. Labels keep first-seen order so sampling is
// reproducible for a given source.
type Dist struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// Add counts one occurrence of label.
func (d *Dist) Add(label string) {
	if i := slices.Index(d.Labels, label); i >= 0 {
		d.Counts[i]++
		return
	}
	d.Labels = append(d.Labels, label)
	d.Counts = append(d.Counts, 1)
}

// Count returns the occurrences of label.
func (d *Dist) Count(label string) int {
	if d == nil {
		return 0
	}
	if i := slices.Index(d.Labels, label); i >= 0 {
		return d.Counts[i]
	}
	return 0
}

// Total returns the sum of all counts.
func (d *Dist) Total() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, c := range d.Counts {
		total += c
	}
	return total
}

// Sample draws a label with probability proportional to its count. It
// reports false for an empty table.
func (d *Dist) Sample(r *rand.Rand) (string, bool) {
	total := d.Total()
	if total == 0 {
		return "", false
	}
	p := r.Float64()
	acc := 0.0
	for i, c := range d.Counts {
		acc += float64(c) / float64(total)
		if p < acc {
			return d.Labels[i], true
		}
	}
	return d.Labels[len(d.Labels)-1], true
}

// Transitions maps a label to the distribution of its successors.
type Transitions map[string]*Dist

func (t Transitions) add(from, to string) {
	d, ok := t[from]
	if !ok {
		d = &Dist{}
		t[from] = d
	}
	d.Add(to)
}

// Sample draws a successor of from.
func (t Transitions) Sample(from string, r *rand.Rand) (string, bool) {
	return t[from].Sample(r)
}

// Stats are the tables derived from an annotated corpus.
type Stats struct {
	// Agendas holds the user intents of each dialogue.
	Agendas [][]string `json:"agendas"`
	// User counts successors of user intents, ending each dialogue in Stop.
	User Transitions `json:"user"`
	// QRFA is User over every turn, with agent intents coarsened.
	QRFA Transitions `json:"qrfa"`
	// Coarse is the full START..STOP QRFA chain.
	Coarse Transitions `json:"coarse"`
	// BotUser counts the turn that follows each agent intent.
	BotUser Transitions `json:"bot_user"`
	// IntentMap labels every known agent utterance. Later turns win.
	IntentMap map[string]string `json:"intent_map"`
	// Ranked lists the user intents of the best-scoring dialogues.
	Ranked [][]string `json:"ranked"`
}

// Dialogues scored for the qrfa agenda need more user turns than this.
const minRankedUserTurns = 3

// MaxRanked caps the number of ranked corpus agendas.
const MaxRanked = 10

// BuildStats derives transition tables from a corpus. Dialogues are visited
// in sorted id order.
func BuildStats(c Corpus) *Stats {
	s := &Stats{
		User:      Transitions{},
		QRFA:      Transitions{},
		Coarse:    Transitions{},
		BotUser:   Transitions{},
		IntentMap: map[string]string{},
	}
	for _, id := range c.IDs() {
		turns := c[id]

		agenda := UserIntents(turns)
		s.Agendas = append(s.Agendas, agenda)
		chain(s.User, agenda, StopIntent)

		qrfa := make([]string, len(turns))
		coarse := []string{LabelStart}
		for i, t := range turns {
			qrfa[i] = QRFALabel(t)
			coarse = append(coarse, CoarseLabel(t))
		}
		chain(s.QRFA, qrfa, StopIntent)
		coarse = append(coarse, LabelStop)
		for i := 0; i+1 < len(coarse); i++ {
			s.Coarse.add(coarse[i], coarse[i+1])
		}

		for i, t := range turns {
			if t.Speaker != AgentTag {
				continue
			}
			s.IntentMap[t.Text] = t.Intent
			if i+1 < len(turns) {
				s.BotUser.add(t.Intent, turns[i+1].Intent)
			}
		}
	}
	s.Ranked = rank(c)
	return s
}

// chain counts consecutive labels and the final label's successor end.
func chain(t Transitions, labels []string, end string) {
	for i, l := range labels {
		next := end
		if i+1 < len(labels) {
			next = labels[i+1]
		}
		t.add(l, next)
	}
}

// Score is the mean fixed QRFA count over consecutive turns of a dialogue.
func Score(turns []Turn) float64 {
	if len(turns) < 2 {
		return 0
	}
	sum := 0
	for i := 0; i+1 < len(turns); i++ {
		sum += CoarseCounts[CoarseLabel(turns[i])][CoarseLabel(turns[i+1])]
	}
	return float64(sum) / float64(len(turns)-1)
}

func rank(c Corpus) [][]string {
	type scored struct {
		id    string
		score float64
	}
	var all []scored
	for _, id := range c.IDs() {
		all = append(all, scored{id, Score(c[id])})
	}
	slices.SortStableFunc(all, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	var out [][]string
	for _, s := range all {
		agenda := UserIntents(c[s.id])
		if len(agenda) <= minRankedUserTurns {
			continue
		}
		out = append(out, agenda)
		if len(out) == MaxRanked {
			break
		}
	}
	return out
}
