package nlu

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/ports"
)

type keywordRule struct {
	slot     string
	keywords []string
}

// requestRules map user questions about the item in focus to slots.
var requestRules = []keywordRule{
	{"plot_keywords", []string{"plot", "storyline", "story"}},
	{"actors", []string{"actor", "actress", "cast", "starring"}},
	{"director_name", []string{"director", "directed"}},
	{"title_year", []string{"release", "year", "when was"}},
	{"duration", []string{"duration", "how long", "length"}},
	{"imdb_score", []string{"rating", "imdb", "score", "rated"}},
	{"genres", []string{"genre", "kind of movie"}},
}

var (
	negateWords  = []string{"no", "nope", "nah", "not yet"}
	affirmWords  = []string{"yes", "yeah", "yep", "sure"}
	watchedWords = []string{"watched", "seen it", "have see", "saw it"}
	offerWords   = []string{"another", "recommend", "something else", "what else", "other", "different", "change", "suggest", "more movies"}
	dislikeWords = []string{"dislike", "dont like", "don't like", "do not like", "hate", "boring"}
	acceptWords  = []string{"i will watch it", "seems good", "it is great", "really like this movie"}
	byeWords     = []string{"bye", "goodbye", "thanks", "thank you", "see you", "quit", "exit"}
	greetWords   = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
	helpWords    = []string{"help"}
)

var nonWord = regexp.MustCompile(`[^a-z0-9' -]+`)

// ActParser is the system's rule-based NLU. It recognises genres from the
// ontology and a fixed set of keywords for the remaining acts.
type ActParser struct {
	genres []string
}

var _ ports.NLU = (*ActParser)(nil)

// NewActParser builds a parser over the informable genres of o.
func NewActParser(o *ontology.Ontology) *ActParser {
	var genres []string
	if o != nil {
		genres = slices.Clone(o.Values("genres"))
	}
	// Longer names first so "Sci-Fi" is not shadowed by a shorter value.
	slices.SortStableFunc(genres, func(a, b string) int { return len(b) - len(a) })
	return &ActParser{genres: genres}
}

// ProcessInput turns utterance into dialogue acts. Text following a system
// feedback request is taken as the review of the item in focus.
func (p *ActParser) ProcessInput(ctx context.Context, utterance string, state *domain.State, dctx *domain.Context) ([]domain.Act, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(utterance)
	if raw == "" {
		return []domain.Act{domain.NewAct(domain.IntentCantHelp)}, nil
	}
	text := normalize(raw)

	if containsAny(text, helpWords) {
		return []domain.Act{domain.NewAct(domain.IntentHelp)}, nil
	}
	if state != nil && domain.HasIntent(state.LastSysActs, domain.IntentFeedback) && !containsAny(text, byeWords) {
		return []domain.Act{domain.NewAct(domain.IntentFeedback, domain.Item("name", raw))}, nil
	}
	if containsAny(text, byeWords) || containsAny(text, acceptWords) {
		return []domain.Act{domain.NewAct(domain.IntentBye)}, nil
	}

	if genre := p.findGenre(text); genre != "" {
		return []domain.Act{
			domain.NewAct(domain.IntentInform, domain.Item("genres", genre)),
			domain.NewAct(domain.IntentOffer),
		}, nil
	}

	offered := state != nil && state.HasItemInFocus() && state.SystemMadeOffer
	if offered {
		switch {
		case startsWithAny(text, negateWords):
			return []domain.Act{domain.NewAct(domain.IntentNegate)}, nil
		case containsAny(text, dislikeWords):
			return []domain.Act{domain.NewAct(domain.IntentOffer)}, nil
		case startsWithAny(text, affirmWords) || containsAny(text, watchedWords):
			return []domain.Act{domain.NewAct(domain.IntentAffirm)}, nil
		}
		for _, rule := range requestRules {
			if containsAny(text, rule.keywords) {
				return []domain.Act{domain.NewAct(domain.IntentRequest, domain.Item(rule.slot, ""))}, nil
			}
		}
	}

	if containsAny(text, offerWords) {
		return []domain.Act{domain.NewAct(domain.IntentOffer)}, nil
	}
	if startsWithAny(text, greetWords) {
		return nil, nil
	}
	return []domain.Act{domain.NewAct(domain.IntentCantHelp)}, nil
}

func (p *ActParser) findGenre(text string) string {
	padded := " " + text + " "
	for _, g := range p.genres {
		if strings.Contains(padded, " "+strings.ToLower(g)+" ") {
			return g
		}
	}
	return ""
}

func normalize(s string) string {
	s = nonWord.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// containsAny reports whether a keyword occurs in text on word boundaries.
func containsAny(text string, keywords []string) bool {
	padded := " " + text + " "
	for _, k := range keywords {
		if strings.Contains(padded, " "+k+" ") || strings.Contains(padded, " "+k+"s ") {
			return true
		}
	}
	return false
}

func startsWithAny(text string, words []string) bool {
	for _, w := range words {
		if text == w || strings.HasPrefix(text, w+" ") {
			return true
		}
	}
	return false
}
