package nlu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/reel/pkg/domain"
)

// Movie is a catalog entry.
type Movie struct {
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
}

// Catalog lists the movie titles an EntityLinker resolves against.
type Catalog struct {
	Movies []Movie
	byName map[string]int
}

// NewCatalog indexes movies by title. Later duplicates are ignored.
func NewCatalog(movies []Movie) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(movies))}
	for _, m := range movies {
		if m.Title == "" {
			continue
		}
		if _, dup := c.byName[m.Title]; dup {
			continue
		}
		c.byName[m.Title] = len(c.Movies)
		c.Movies = append(c.Movies, Movie{Title: m.Title, Genres: slices.Clone(m.Genres)})
	}
	return c
}

// CatalogFromRecords builds a catalog from database records.
func CatalogFromRecords(records []domain.Record) *Catalog {
	movies := make([]Movie, 0, len(records))
	for _, r := range records {
		movies = append(movies, Movie{Title: r.Name(), Genres: SplitGenres(r["genres"])})
	}
	return NewCatalog(movies)
}

// LoadCatalog reads a CSV file with "title" and "genres" columns.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return c, nil
}

// ReadCatalog parses catalog CSV from r.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}
	titleCol, genresCol := slices.Index(header, "title"), slices.Index(header, "genres")
	if titleCol < 0 {
		return nil, errors.New(`missing "title" column`)
	}

	var movies []Movie
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if titleCol >= len(row) {
			continue
		}
		m := Movie{Title: row[titleCol]}
		if genresCol >= 0 && genresCol < len(row) {
			m.Genres = SplitGenres(row[genresCol])
		}
		movies = append(movies, m)
	}
	return NewCatalog(movies), nil
}

// SplitGenres splits a genre list separated by commas or pipes.
func SplitGenres(s string) []string {
	var out []string
	for _, g := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Titles returns the catalog titles in order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.Movies))
	for i, m := range c.Movies {
		out[i] = m.Title
	}
	return out
}

// Genres returns the genres of title, or nil when it is unknown.
func (c *Catalog) Genres(title string) []string {
	i, ok := c.byName[title]
	if !ok {
		return nil
	}
	return slices.Clone(c.Movies[i].Genres)
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.Movies) }
