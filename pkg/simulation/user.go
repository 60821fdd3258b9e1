package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/ports"
)

// DefaultGenre is disclosed when the profile rates no genre.
const DefaultGenre = "Drama"

// DefaultMovie is disclosed when the profile rates no movie.
const DefaultMovie = "Toy Story (1995)"

// maxNoveltyDraws bounds the redraws that avoid repeating a cached response.
const maxNoveltyDraws = 20

// Persona commitment ratings.
const (
	committedLike    = 1.5
	committedDislike = -1.5
)

var disclosing = map[string][]string{
	ModeMS.Value: {"Disclose", "Expand", "Revise", "Refine"},
	ModeMB.Value: {"Disclose", "Revise"},
	ModeAC.Value: {"Disclose", "Refine", "Revise"},
}

// Response is the user's reply to one system turn.
type Response struct {
	Text string
	// BotIntents are the annotated intents of the system utterances.
	BotIntents []string
	// Stop is set once the agenda is exhausted; Text is then "Stop".
	Stop bool
}

// User is an agenda-based simulated user.
type User struct {
	stats     *Stats
	renderer  ports.Renderer
	annotator ports.IntentAnnotator
	linker    ports.EntityLinker
	profile   *Profile
	mode      Mode
	rnd       *rand.Rand
	logger    *slog.Logger

	agenda       Agenda
	current      string
	local        []string
	movie        string
	movieGenres  []string
	currentGenre string
}

// UserOption configures a User.
type UserOption func(*User)

// WithMode sets the simulation mode. The default is ModeMS.
func WithMode(m Mode) UserOption {
	return func(u *User) {
		u.mode = m
	}
}

// WithLinker sets the entity linker used in persona mode to recognise
// offered movies.
func WithLinker(l ports.EntityLinker) UserOption {
	return func(u *User) {
		u.linker = l
	}
}

// WithUserRand sets the source of all sampling.
func WithUserRand(r *rand.Rand) UserOption {
	return func(u *User) {
		u.rnd = r
	}
}

// WithUserLogger sets the logger.
func WithUserLogger(l *slog.Logger) UserOption {
	return func(u *User) {
		u.logger = l
	}
}

// NewUser assembles a simulated user from corpus statistics, a template
// renderer for its own utterances and an annotator for the system's.
func NewUser(stats *Stats, renderer ports.Renderer, annotator ports.IntentAnnotator, profile *Profile, opts ...UserOption) *User {
	u := &User{
		stats:     stats,
		renderer:  renderer,
		annotator: annotator,
		profile:   profile,
		mode:      ModeMS,
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:    logging.NewNop(),
	}
	if u.profile == nil {
		u.profile = &Profile{Persona: map[string]string{}}
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// InitAgenda samples a new agenda and resets the dialogue state.
func (u *User) InitAgenda(kind AgendaKind) error {
	a, err := SampleAgenda(u.stats, kind, u.rnd)
	if err != nil {
		return err
	}
	u.SetAgenda(a)
	u.logger.Debug("agenda initialised", "kind", kind.Value, "agenda", []string(a))
	return nil
}

// SetAgenda installs a prepared agenda.
func (u *User) SetAgenda(a Agenda) {
	u.agenda = a.Clone()
	u.current = ""
	u.local = nil
	u.movie = ""
	u.movieGenres = nil
	u.currentGenre = ""
}

// Agenda returns a copy of the pending intents.
func (u *User) Agenda() Agenda { return u.agenda.Clone() }

// CurrentIntent returns the intent of the last user utterance.
func (u *User) CurrentIntent() string { return u.current }

// CurrentMovie returns the movie under discussion, if any.
func (u *User) CurrentMovie() string { return u.movie }

// CurrentGenre returns the genre last disclosed in persona mode.
func (u *User) CurrentGenre() string { return u.currentGenre }

// Profile returns the live profile.
func (u *User) Profile() *Profile { return u.profile }

// Mode returns the simulation mode.
func (u *User) Mode() Mode { return u.mode }

// InitDialog opens the dialogue, consuming the first agenda item.
func (u *User) InitDialog() string {
	u.current = StartIntent
	u.agenda.Pop()
	return "Hello"
}

// GenerateResponse reacts to the system utterances of one turn. If the
// last system intent answers the pending user intent the next agenda item
// is taken; otherwise a reactive intent is sampled from the bot-to-user
// statistics. With persona set, opinions on offered movies follow the
// profile and may end the dialogue early.
func (u *User) GenerateResponse(utterances []string, persona bool) (Response, error) {
	if len(utterances) == 0 {
		return Response{}, errors.New("no system utterance to respond to")
	}
	intents := make([]string, len(utterances))
	for i, utt := range utterances {
		intents[i] = u.annotator.Annotate(utt)
	}
	resp := Response{BotIntents: intents}
	if len(u.agenda) == 0 {
		resp.Text = StopIntent
		resp.Stop = true
		return resp, nil
	}

	last := intents[len(intents)-1]
	if Matches(u.current, last) {
		u.current, _ = u.agenda.Pop()
	} else if next, ok := u.stats.BotUser.Sample(last, u.rnd); ok {
		u.current = next
	}

	var text string
	var err error
	switch u.mode {
	case ModeMB:
		text, err = u.respondMB(utterances, intents, persona)
	case ModeAC:
		text, err = u.respondAC(utterances, intents, persona)
	default:
		text, err = u.respondMS(utterances, intents, persona)
	}
	if err != nil {
		return resp, err
	}

	if last == "Similar" {
		u.local = nil
	}
	if u.current == "Repeat" {
		u.local = append(u.local, text)
	}
	resp.Text = text
	return resp, nil
}

func (u *User) isDisclosing() bool {
	return slices.Contains(disclosing[u.mode.Value], u.current)
}

func (u *User) respondMS(utterances, intents []string, persona bool) (string, error) {
	if u.isDisclosing() {
		var genre string
		if persona {
			genre = u.choose(u.profile.Genres.Favored(), u.profile.Genres.Names(), DefaultGenre)
			u.currentGenre = genre
		} else {
			genre = u.choose(u.profile.Genres.Names(), nil, DefaultGenre)
		}
		return u.render(u.current, map[string]string{"genre": genre})
	}
	last := intents[len(intents)-1]
	if !persona || !slices.Contains(MovieListIntents, last) {
		return u.renderNovel(u.current)
	}

	if u.linkEntity(utterances[len(utterances)-1]) {
		if rating, watched := u.profile.Movies.Get(u.movie); watched {
			switch u.current {
			case "Note-yes", "Note":
				u.current = "Note-yes"
			case "Disclose-review":
				if rating == 1 {
					u.current = "Disclose-review-like"
				} else {
					u.current = "Disclose-review-dislike"
				}
			}
		} else if slices.Contains([]string{"Note-dislike", "Note-end", "Complete"}, u.current) {
			if u.profile.Genres.Sum(u.movieGenres) >= 0 {
				u.current = "Note-end"
				u.profile.UpdatePersona(u.movie, committedLike)
				u.agenda = nil
			} else {
				u.current = "Note-dislike"
				u.profile.UpdatePersona(u.movie, committedDislike)
			}
		}
	}
	return u.render(u.current, nil)
}

func (u *User) respondMB(utterances, intents []string, persona bool) (string, error) {
	if u.isDisclosing() {
		return u.discloseMovie(persona)
	}
	last := intents[len(intents)-1]
	if !persona {
		return u.renderNovel(u.current)
	}

	if slices.Contains(MovieListIntents, last) {
		u.linkEntity(utterances[len(utterances)-1])
	}
	if last != "Subset" && last != "Show" {
		return u.renderNovel(u.current)
	}
	if u.movie != "" && slices.Contains([]string{"Note-dislike", "Note", "Complete"}, u.current) {
		if u.profile.Genres.Sum(u.movieGenres) >= 0 {
			u.current = "Note"
			u.profile.UpdatePersona(u.movie, committedLike)
			u.agenda = nil
		} else {
			u.current = "Note-dislike"
			u.profile.UpdatePersona(u.movie, committedDislike)
		}
	}
	return u.render(u.current, nil)
}

func (u *User) respondAC(utterances, intents []string, persona bool) (string, error) {
	if u.isDisclosing() {
		return u.discloseMovie(persona)
	}
	if !persona || len(intents) < 2 || !slices.Contains(MovieListIntents, intents[1]) {
		return u.renderNovel(u.current)
	}

	if u.linkEntity(utterances[1]) {
		if u.profile.Movies.Has(u.movie) {
			if u.current == "Back" || u.current == "Similar" {
				u.current = "Similar"
			}
		} else if u.profile.Genres.Sum(u.movieGenres) >= 0 {
			u.current = "Note"
			u.profile.UpdatePersona(u.movie, committedLike)
			if u.rnd.Float64() > 0.5 {
				u.agenda = Agenda{"Complete"}
			} else {
				u.agenda = nil
			}
		} else {
			u.current = "Similar"
			u.profile.UpdatePersona(u.movie, committedDislike)
		}
	}
	return u.render(u.current, nil)
}

func (u *User) discloseMovie(persona bool) (string, error) {
	movie := u.choose(u.profile.Movies.Favored(), u.profile.Movies.Names(), DefaultMovie)
	if persona {
		u.movie = movie
	}
	return u.render(u.current, map[string]string{"movie": movie})
}

// choose picks from primary, then fallback, then def.
func (u *User) choose(primary, fallback []string, def string) string {
	switch {
	case len(primary) > 0:
		return primary[u.rnd.IntN(len(primary))]
	case len(fallback) > 0:
		return fallback[u.rnd.IntN(len(fallback))]
	}
	return def
}

// linkEntity makes the first movie named in text the current one. Without
// a linker or a recognisable mention the current movie is kept.
func (u *User) linkEntity(text string) bool {
	if u.linker == nil {
		return false
	}
	entities, err := u.linker.LinkEntities(text)
	if err != nil || len(entities) == 0 || entities[0].Title == "" {
		u.logger.Debug("no movie linked", "text", text, "err", err)
		return false
	}
	u.movie = entities[0].Title
	u.movieGenres = entities[0].Genres
	return true
}

func (u *User) render(intent string, args map[string]string) (string, error) {
	text, err := u.renderer.Render(intent, args)
	if err != nil {
		return "", fmt.Errorf("failed to render %s response: %w", u.mode.Value, err)
	}
	return text, nil
}

// renderNovel redraws while the response was already given for the
// current movie.
func (u *User) renderNovel(intent string) (string, error) {
	text, err := u.render(intent, nil)
	for i := 0; err == nil && i < maxNoveltyDraws && slices.Contains(u.local, text); i++ {
		text, err = u.render(intent, nil)
	}
	return text, err
}
