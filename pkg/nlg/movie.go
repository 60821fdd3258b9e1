package nlg

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
)

var (
	helpMessages = []string{
		"Hi there. I am JARVIS, your movie recommending buddy. I can recommend you movies based on the GENRE you preffer.\n" +
			"And if you like the movie, you can ask me about its plot, actors, directors and release year e.t.c.",
		"Hi. My name is JARVIS and I can recommend you movies for the GENRE you preffer.\n" +
			"If you like the movie, you can ask me about its plot, actors, directors and release year e.t.c.",
	}
	welcomeMessages = []string{"How can I help you?", "Shall we start?", "How may I assist you?"}
	ackMessages     = []string{"Thank you for your feedback. ", "Thank you for reviewing the movie. "}
	byeMessages     = []string{"Thank you, Goodbye", "Bye. Hope you liked it"}
)

// MovieNLG renders system acts with fixed movie-domain templates.
type MovieNLG struct {
	rnd *rand.Rand
}

var _ ports.NLG = (*MovieNLG)(nil)

// Option configures a MovieNLG.
type Option func(*MovieNLG)

// WithRand sets the source used to pick among template variants.
func WithRand(r *rand.Rand) Option {
	return func(n *MovieNLG) {
		n.rnd = r
	}
}

// NewMovieNLG creates the system NLG.
func NewMovieNLG(opts ...Option) *MovieNLG {
	n := &MovieNLG{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *MovieNLG) pick(options []string) string {
	return options[n.rnd.IntN(len(options))]
}

// Render turns acts into a single utterance. An offer of a named item ends
// the utterance, so informs that follow it are not rendered.
func (n *MovieNLG) Render(acts []domain.Act) string {
	first := n.rnd.IntN(2) == 0
	either := func(a, b string) string {
		if first {
			return a
		}
		return b
	}

	var response []string
	ack := ""
	for _, act := range acts {
		switch act.Intent {
		case domain.IntentAckFeedback:
			ack = n.pick(ackMessages)

		case domain.IntentFeedback:
			response = append(response, either("What do you think about this Movie?", "Can you give a review on this movie?"))

		case domain.IntentRequest:
			if len(act.Params) > 0 && act.Params[0].Slot != "" {
				slot := act.Params[0].Slot
				response = append(response, n.pick([]string{
					"Which " + slot + " do you prefer?",
					"Do you have any " + slot + " in mind?",
					"Guide me. Any " + slot + " you like?",
				}))
			} else {
				response = append(response, "Which movie do you want?")
			}

		case domain.IntentOffer:
			for _, p := range act.Params {
				if p.Slot == "name" && p.Value != "" {
					response = append(response, either(
						fmt.Sprintf(`There is a movie named "%s". Have you watched it?`, p.Value),
						fmt.Sprintf(`Have you watched "%s"? It can be a good recommendation.`, p.Value),
					))
					return ack + strings.Join(response, " ")
				}
			}

		case domain.IntentInform:
			for _, p := range act.Params {
				switch {
				case p.Slot == "name" && p.Value == "not found":
					response = []string{"Sorry, I cannot find such an item. "}
				case p.Slot == "name" && p.Value != "":
					response = append(response, either(
						fmt.Sprintf(`I would recommend movie "%s"`, p.Value),
						fmt.Sprintf(`"%s" can be a good recomendation `, p.Value),
					))
				default:
					response = append(response, n.informSlot(p, either))
				}
			}

		case domain.IntentBye:
			response = append(response, n.pick(byeMessages))

		case domain.IntentDeny:
			response = append(response, "No")

		case domain.IntentNegate:
			response = append(response, "No ")
			if len(act.Params) > 0 && act.Params[0].Slot != "" && act.Params[0].Value != "" {
				response = append(response, act.Params[0].Slot+" is not "+act.Params[0].Value)
			}

		case domain.IntentAck:
			response = append(response, "Ok")

		case domain.IntentAffirm:
			response = append(response, "Yes ")
			if len(act.Params) > 0 && act.Params[0].Slot != "" && act.Params[0].Value != "" {
				response = append(response, act.Params[0].Slot+" is "+act.Params[0].Value)
			}

		case domain.IntentCantHelp:
			response = append(response, either("Sorry, I cannot help you with that.", "Sorry, I don't understand what you mean."))

		case domain.IntentWelcome:
			response = append(response, n.pick(helpMessages)+"\n\nYou can type 'help' anytime to get assistance.\n\n"+n.pick(welcomeMessages))

		case domain.IntentHelp:
			response = append(response, n.pick(helpMessages))

		case domain.IntentMoreInfo:
			if s := moreInfo(act, either); s != "" {
				response = append(response, s)
			}

		default:
			response = append(response, "MovieNLG "+act.String())
		}
	}
	return ack + format(response)
}

func (n *MovieNLG) informSlot(p domain.ActItem, either func(a, b string) string) string {
	v := p.Value
	if v == "" {
		return "its " + p.Slot + " is unknown, "
	}
	switch p.Slot {
	case "genres":
		return either("The genres it belongs to are "+strings.ToLower(v), "Its genres are "+strings.ToLower(v))
	case "director_name":
		return either("The director of this movie is "+v, "It was directed by "+v)
	case "imdb_score":
		return either("Its rating on IMDB is "+v, "The movie rates "+v+" on IMDB")
	case "plot_keywords":
		return n.pick([]string{"The plot of the movie revolves around " + v, "The movie plot is about " + v + " "})
	case "title_year":
		return n.pick([]string{"The movie was released in " + v, "It was released in year " + v + " "})
	case "actors":
		return n.pick([]string{"Some of the famous actors in this movie are " + v, v + " have played prominent roles in this movie"})
	case "duration":
		if minutes, err := strconv.Atoi(v); err == nil {
			return n.pick([]string{
				"It's duration is " + v + " minutes",
				fmt.Sprintf("It is %d hours and %d minutes long", minutes/60, minutes%60),
			})
		}
	}
	return "its " + p.Slot + " is " + v + " "
}

var requestableNames = map[string][2]string{
	"director_name": {"the name of the 'director'", "the 'director' name"},
	"actors":        {"actors", "list of top 'actors'"},
	"imdb_score":    {"IMDB 'rating'", "'rating' on IMDB"},
	"plot_keywords": {"the 'plot'", "the 'storyline'"},
	"title_year":    {"the release 'year'", "the 'year' of release"},
	"duration":      {"the movie 'duration'", "the 'duration' of the movie"},
}

// moreInfo lists either the values of a slot ("a|b") or the requestable
// slots carried space-separated in the slot name.
func moreInfo(act domain.Act, either func(a, b string) string) string {
	if len(act.Params) == 0 {
		return ""
	}
	p := act.Params[0]
	switch {
	case p.Value != "" && strings.Contains(p.Value, "|"):
		return either("The available "+p.Slot+" are ", "You can choose the "+p.Slot+" from ") + "'" + strings.TrimSpace(p.Value) + "'"
	case strings.Contains(p.Slot, " "):
		slots := strings.Split(p.Slot, " ")
		for i, s := range slots {
			if names, ok := requestableNames[s]; ok {
				slots[i] = either(names[0], names[1])
			}
		}
		last := len(slots) - 1
		return "I can tell you more about " + strings.Join(slots[:last], ", ") + " and " + slots[last] + "."
	}
	return ""
}

// format joins the fragments, ends the sentence and capitalises it.
func format(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	last := len(parts) - 1
	out := parts[last]
	if last > 0 {
		out = strings.Join(parts[:last], ", ") + " " + parts[last]
	}
	if strings.HasSuffix(out, ",") {
		out = strings.TrimSpace(strings.TrimSuffix(out, ","))
	}
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	out = strings.ReplaceAll(out, "  ", " ")
	out = strings.ReplaceAll(out, " ,", ",")

	r, size := utf8.DecodeRuneInString(out)
	return string(unicode.ToUpper(r)) + out[size:]
}
