package nlu_test

import (
	"testing"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlu"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *nlu.Catalog {
	return nlu.NewCatalog([]nlu.Movie{
		{Title: "Toy Story (1995)", Genres: []string{"Animation", "Comedy"}},
		{Title: "Heat (1995)", Genres: []string{"Action", "Crime"}},
		{Title: "Up (2009)", Genres: []string{"Animation", "Adventure"}},
	})
}

func TestPrepare(t *testing.T) {
	assert.Equal(t, "toy story 1995", nlu.Prepare("Toy Story (1995)"))
	assert.Equal(t, "walle dont panic", nlu.Prepare("WALL·E/Don't; Panic!"))
	assert.Equal(t, "c++ #1", nlu.Prepare("C++ #1"))
}

func TestParse(t *testing.T) {
	assert.Equal(t, "You should try Up!", nlu.Parse("You should try\n Up!;)"))
}

func TestFindPattern(t *testing.T) {
	t.Run("offer", func(t *testing.T) {
		re, err := nlu.FindPattern(`There is a movie named "Up". Have you watched it?`)
		require.NoError(t, err)
		assert.Equal(t, `There is a movie named "(.*)". Have you watched it?`, re.String())
	})

	t.Run("acknowledged offer", func(t *testing.T) {
		re, err := nlu.FindPattern(`Thank you for your feedback. Have you watched "Heat"? It can be a good recommendation.`)
		require.NoError(t, err)
		assert.Contains(t, re.String(), `Thank you for your feedback. Have you watched`)
	})

	t.Run("unknown utterance", func(t *testing.T) {
		_, err := nlu.FindPattern("Which genres do you prefer?")
		assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	})

	t.Run("shorter than the keys", func(t *testing.T) {
		_, err := nlu.FindPattern("Thank you")
		assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	})
}

func TestExtractSurfaceForms(t *testing.T) {
	t.Run("single group keeps every match", func(t *testing.T) {
		sfs, err := nlu.ExtractSurfaceForms("You should try Up!")
		require.NoError(t, err)
		assert.Equal(t, []string{"Up"}, sfs)
	})

	t.Run("multiple groups of the first match", func(t *testing.T) {
		sfs, err := nlu.ExtractSurfaceForms("Here are a couple of movies for you! 1. Up 2. Heat 3. Alien Which film do you have an interest? Just paste the name")
		require.NoError(t, err)
		assert.Equal(t, []string{"Up ", "Heat ", "Alien "}, sfs)
	})

	t.Run("pattern without a match", func(t *testing.T) {
		_, err := nlu.ExtractSurfaceForms("You should try harder")
		assert.ErrorIs(t, err, domain.ErrPatternNotFound)
	})
}

func TestEntityLinker_LinkEntities(t *testing.T) {
	l := nlu.NewEntityLinker(testCatalog())

	text := `Thank you for reviewing the movie. There is a movie named "Toy Story". Have you watched it?`
	got, err := l.LinkEntities(text)
	require.NoError(t, err)
	assert.Equal(t, []ports.Entity{{
		Text:        text,
		SurfaceForm: "Toy Story",
		Title:       "Toy Story (1995)",
		Genres:      []string{"Animation", "Comedy"},
	}}, got)

	assert.Equal(t, "Heat (1995)", l.LinkEntity("heat"))

	_, err = l.LinkEntities("Hello")
	assert.ErrorIs(t, err, domain.ErrPatternNotFound)
}

func TestEntityLinker_EmptyCatalog(t *testing.T) {
	l := nlu.NewEntityLinker(nlu.NewCatalog(nil))
	got, err := l.LinkEntities("I found Up for you!")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Title)
	assert.Nil(t, got[0].Genres)
}
