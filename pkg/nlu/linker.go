package nlu

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
)

// Pattern is a known system utterance shape. Key is matched token by token
// against an utterance; Regexp extracts the movie surface forms.
type Pattern struct {
	Key    string
	Regexp *regexp.Regexp
}

func pattern(key, expr string) Pattern {
	return Pattern{Key: key, Regexp: regexp.MustCompile(expr)}
}

// UtterancePatterns are the system utterances that mention movies.
var UtterancePatterns = []Pattern{
	pattern("Search results: 1. (.*) 2. (.*) 3. (.*) 4. (.*) 5. (.*)Which options matches your title search -----g-: 1, 2, 3, 4or 5Type a new one if none matches!",
		`1\. (.*) 2\. (.*) 3\. (.*) 4\. (.*) 5\. (.*)Which options matches`),
	pattern("Here are a couple of movies for you! 1. (.*) 2. (.*) 3. (.*)Which film do you have an interest? Just paste the name",
		`1\. (.*)2\. (.*)3\. (.*)Which film do you have`),
	pattern(`There is a movie named "(.*)". Have you watched it?`,
		`There is a movie named "(.*)". Have you watched it?`),
	pattern(`Have you watched "(.*)"? It can be a good recommendation.`,
		`Have you watched "(.*)"\? It can be a good recommendation.`),
	pattern(`Thank you for your feedback. There is a movie named "(.*)". Have you watched it?`,
		`Thank you for your feedback. There is a movie named "(.*)". Have you watched it?`),
	pattern(`Thank you for reviewing the movie. There is a movie named "(.*)". Have you watched it?`,
		`Thank you for reviewing the movie. There is a movie named "(.*)". Have you watched it?`),
	pattern(`Thank you for reviewing the movie. Have you watched "(.*)"? It can be a good recommendation.`,
		`Thank you for reviewing the movie. Have you watched "(.*)"\? It can be a good recommendation.`),
	pattern(`Thank you for your feedback. Have you watched "(.*)"? It can be a good recommendation.`,
		`Thank you for your feedback. Have you watched "(.*)"\? It can be a good recommendation.`),
	pattern("You should try (.*)!", `You should try (.*)!`),
	pattern("There's also (.*)!", `There's also (.*)!`),
	pattern("Also check out (.*)!", `Also check out (.*)!`),
	pattern("I found (.*) for you!", `I found (.*) for you!`),
	pattern("I also found (.*)!", `I also found (.*)!`),
	pattern("I think you should give (.*) a shot!", `I think you should give (.*) a shot!`),
}

var (
	replaceBySpace = regexp.MustCompile(`[/(){}\[\]|@,;]`)
	badSymbols     = regexp.MustCompile(`[^0-9a-z #+_]`)
)

// Prepare normalises a title for indexing.
func Prepare(doc string) string {
	doc = strings.ToLower(doc)
	doc = replaceBySpace.ReplaceAllString(doc, " ")
	doc = badSymbols.ReplaceAllString(doc, "")
	return strings.Join(strings.Fields(doc), " ")
}

// Parse strips tags that confuse pattern matching.
func Parse(text string) string {
	for _, tag := range []string{"\n", ";)"} {
		text = strings.ReplaceAll(text, tag, "")
	}
	return text
}

// FindPattern narrows the known patterns by shared token prefix until a
// single one remains.
func FindPattern(utterance string) (*regexp.Regexp, error) {
	tokens := strings.Fields(utterance)
	candidates := UtterancePatterns
	for i, tok := range tokens {
		var next []Pattern
		for _, p := range candidates {
			if keyTokens := strings.Fields(p.Key); i < len(keyTokens) && keyTokens[i] == tok {
				next = append(next, p)
			}
		}
		candidates = next
		if len(candidates) == 1 {
			return candidates[0].Regexp, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrPatternNotFound, utterance)
}

// ExtractSurfaceForms returns the movie mentions of a system utterance.
// Single-group patterns yield every match; multi-group patterns yield the
// groups of the first match.
func ExtractSurfaceForms(text string) ([]string, error) {
	re, err := FindPattern(text)
	if err != nil {
		return nil, err
	}
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no surface form in %q", domain.ErrPatternNotFound, text)
	}
	if re.NumSubexp() == 1 {
		out := make([]string, len(matches))
		for i, m := range matches {
			out[i] = m[1]
		}
		return out, nil
	}
	return matches[0][1:], nil
}

// EntityLinker resolves movie mentions against a catalog.
type EntityLinker struct {
	catalog *Catalog
	titles  []string
	index   *Index
}

var _ ports.EntityLinker = (*EntityLinker)(nil)

// NewEntityLinker indexes the prepared catalog titles.
func NewEntityLinker(c *Catalog) *EntityLinker {
	titles := c.Titles()
	docs := make([]string, len(titles))
	for i, t := range titles {
		docs[i] = Prepare(t)
	}
	return &EntityLinker{catalog: c, titles: titles, index: NewIndex(docs)}
}

// LinkEntity returns the catalog title closest to a surface form, or "" for
// an empty catalog.
func (l *EntityLinker) LinkEntity(sf string) string {
	i, _ := l.index.Nearest(Prepare(sf))
	if i < 0 {
		return ""
	}
	return l.titles[i]
}

// LinkEntities finds and resolves every movie mentioned in text.
func (l *EntityLinker) LinkEntities(text string) ([]ports.Entity, error) {
	sfs, err := ExtractSurfaceForms(Parse(text))
	if err != nil {
		return nil, err
	}
	out := make([]ports.Entity, 0, len(sfs))
	for _, sf := range sfs {
		title := l.LinkEntity(sf)
		out = append(out, ports.Entity{
			Text:        text,
			SurfaceForm: sf,
			Title:       title,
			Genres:      l.catalog.Genres(title),
		})
	}
	return out, nil
}
