package simulation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// Preference is a rating of a movie or a genre: 1 liked, -1 disliked, 0
// neutral. Ratings committed during a dialogue are ±1.5.
type Preference struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// Preferences keep insertion order.
type Preferences []Preference

// Get returns the rating of name.
func (p Preferences) Get(name string) (float64, bool) {
	for _, pref := range p {
		if pref.Name == name {
			return pref.Rating, true
		}
	}
	return 0, false
}

// Has reports whether name is rated.
func (p Preferences) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Set rates name, appending it when new.
func (p *Preferences) Set(name string, rating float64) {
	for i := range *p {
		if (*p)[i].Name == name {
			(*p)[i].Rating = rating
			return
		}
	}
	*p = append(*p, Preference{Name: name, Rating: rating})
}

// Names returns the rated names in order.
func (p Preferences) Names() []string {
	out := make([]string, len(p))
	for i, pref := range p {
		out[i] = pref.Name
	}
	return out
}

// Favored returns the names rated exactly 1.
func (p Preferences) Favored() []string {
	var out []string
	for _, pref := range p {
		if pref.Rating == 1 {
			out = append(out, pref.Name)
		}
	}
	return out
}

// Sum adds the ratings of names; unrated names count as 0.
func (p Preferences) Sum(names []string) float64 {
	total := 0.0
	for _, n := range names {
		r, _ := p.Get(n)
		total += r
	}
	return total
}

// Profile is the simulated user's persona and preferences.
type Profile struct {
	Persona map[string]string `json:"persona"`
	Movies  Preferences       `json:"movies"`
	Genres  Preferences       `json:"genres"`
}

// UpdatePersona records a movie opinion formed during the dialogue.
func (p *Profile) UpdatePersona(movie string, rating float64) {
	p.Movies.Set(movie, rating)
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		Persona: maps.Clone(p.Persona),
		Movies:  slices.Clone(p.Movies),
		Genres:  slices.Clone(p.Genres),
	}
}

// RatePreference thresholds a raw rating into 1, 0 or -1.
func RatePreference(rating, upper, lower float64) float64 {
	switch {
	case rating >= upper:
		return 1
	case rating <= lower:
		return -1
	}
	return 0
}

// Rating thresholds and profile sizes of generated users.
const (
	MovieUpper = 4.0
	MovieLower = 2.0
	GenreUpper = 3.5
	GenreLower = 2.0

	DefaultProfileMovies = 8
	DefaultProfileGenres = 8
)

// MaxRatingRows caps the ratings read from the ratings file.
const MaxRatingRows = 500000

type genreRatings struct {
	name    string
	ratings []float64
}

type userRatings struct {
	movies Preferences
	genres []*genreRatings
}

func (u *userRatings) addGenre(name string, rating float64) {
	for _, g := range u.genres {
		if g.name == name {
			g.ratings = append(g.ratings, rating)
			return
		}
	}
	u.genres = append(u.genres, &genreRatings{name: name, ratings: []float64{rating}})
}

// ProfileGenerator samples profiles from real MovieLens users.
type ProfileGenerator struct {
	order []string
	users map[string]*userRatings
}

// LoadProfileGenerator reads MovieLens movies.csv and ratings.csv files.
func LoadProfileGenerator(moviesPath, ratingsPath string) (*ProfileGenerator, error) {
	mf, err := os.Open(moviesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open movies %s: %w", moviesPath, err)
	}
	defer mf.Close()
	rf, err := os.Open(ratingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings %s: %w", ratingsPath, err)
	}
	defer rf.Close()
	return ReadProfileGenerator(mf, rf)
}

type movieLens struct {
	title  string
	genres []string
}

// ReadProfileGenerator parses MovieLens CSVs: movieId,title,genres and
// userId,movieId,rating,timestamp, both with a header row. Ratings of
// unknown movies are skipped.
func ReadProfileGenerator(movies, ratings io.Reader) (*ProfileGenerator, error) {
	catalog := map[string]movieLens{}
	mr := csv.NewReader(movies)
	mr.FieldsPerRecord = -1
	if _, err := mr.Read(); err != nil {
		return nil, fmt.Errorf("failed to read movies header: %w", err)
	}
	for {
		rec, err := mr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read movies: %w", err)
		}
		if len(rec) < 3 {
			continue
		}
		catalog[rec[0]] = movieLens{title: rec[1], genres: strings.Split(rec[2], "|")}
	}

	g := &ProfileGenerator{users: map[string]*userRatings{}}
	rr := csv.NewReader(ratings)
	rr.FieldsPerRecord = -1
	if _, err := rr.Read(); err != nil {
		return nil, fmt.Errorf("failed to read ratings header: %w", err)
	}
	for i := 0; i < MaxRatingRows; i++ {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ratings: %w", err)
		}
		if len(rec) < 3 {
			continue
		}
		movie, ok := catalog[rec[1]]
		if !ok {
			continue
		}
		rating, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rating %q: %w", rec[2], err)
		}
		u, ok := g.users[rec[0]]
		if !ok {
			u = &userRatings{}
			g.users[rec[0]] = u
			g.order = append(g.order, rec[0])
		}
		u.movies.Set(movie.title, RatePreference(rating, MovieUpper, MovieLower))
		for _, genre := range movie.genres {
			u.addGenre(genre, rating)
		}
	}
	return g, nil
}

// Users returns the number of users read.
func (g *ProfileGenerator) Users() int { return len(g.order) }

// Generate picks a random user and keeps their first numMovies movies and
// numGenres genres. Genre ratings are the thresholded mean of their movie
// ratings.
func (g *ProfileGenerator) Generate(r *rand.Rand, numMovies, numGenres int) (*Profile, error) {
	if len(g.order) == 0 {
		return nil, errors.New("no users to generate profiles from")
	}
	u := g.users[g.order[r.IntN(len(g.order))]]

	p := &Profile{Persona: map[string]string{}}
	p.Movies = slices.Clone(u.movies[:min(numMovies, len(u.movies))])
	for _, gr := range u.genres[:min(numGenres, len(u.genres))] {
		sum := 0.0
		for _, v := range gr.ratings {
			sum += v
		}
		p.Genres = append(p.Genres, Preference{
			Name:   gr.name,
			Rating: RatePreference(sum/float64(len(gr.ratings)), GenreUpper, GenreLower),
		})
	}
	return p, nil
}

var ratingChoices = []float64{-1, 0, 1}

// RandomProfile invents a user rating random movies and genres. The first
// movie and genre are always liked so that disclosure has something to
// name. Persona attributes come from gofakeit seeded by r.
func RandomProfile(r *rand.Rand, titles, genres []string, numMovies, numGenres int) *Profile {
	faker := gofakeit.New(r.Uint64())
	p := &Profile{Persona: map[string]string{
		"name":       faker.Name(),
		"gender":     faker.Gender(),
		"age":        strconv.Itoa(faker.Number(18, 75)),
		"occupation": faker.JobTitle(),
	}}
	for i, title := range pick(r, titles, numMovies) {
		p.Movies = append(p.Movies, Preference{Name: title, Rating: randomRating(r, i)})
	}
	for i, genre := range pick(r, genres, numGenres) {
		p.Genres = append(p.Genres, Preference{Name: genre, Rating: randomRating(r, i)})
	}
	return p
}

func randomRating(r *rand.Rand, i int) float64 {
	if i == 0 {
		return 1
	}
	return ratingChoices[r.IntN(len(ratingChoices))]
}

func pick(r *rand.Rand, from []string, n int) []string {
	idx := r.Perm(len(from))
	out := make([]string, 0, min(n, len(from)))
	for _, i := range idx[:min(n, len(idx))] {
		out = append(out, from[i])
	}
	return out
}
