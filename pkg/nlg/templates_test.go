package nlg_test

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	for _, name := range []string{"ms", "mb", "ac"} {
		t.Run(name, func(t *testing.T) {
			tpl, err := nlg.Builtin(name)
			require.NoError(t, err)
			assert.True(t, tpl.Has("Disclose"))
			assert.True(t, tpl.Has("Complete"))
		})
	}

	_, err := nlg.Builtin("xx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}

func TestBuiltin_MSPools(t *testing.T) {
	tpl, err := nlg.Builtin("ms")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, tpl.Pool("Non-disclose"))
	assert.Len(t, tpl.Pool("Repeat"), 11)
	assert.Equal(t, []string{"Just so so", "I dislike it"}, tpl.Pool("Disclose-review-dislike"))
}

func TestTemplates_Render(t *testing.T) {
	tpl := nlg.NewTemplates(nlg.Set{
		"Disclose": {"I like {genre} movies"},
		"Book":     {"Book {movie} on {day}"},
	}, nlg.WithTemplateRand(rand.New(rand.NewPCG(1, 1))))

	got, err := tpl.Render("Disclose", map[string]string{"genre": "Comedy"})
	require.NoError(t, err)
	assert.Equal(t, "I like Comedy movies", got)

	got, err = tpl.Render("Book", map[string]string{"movie": "Up"})
	require.NoError(t, err)
	assert.Equal(t, "Book Up on {day}", got)

	_, err = tpl.Render("Stop", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownIntent)

	assert.Equal(t, []string{"Book", "Disclose"}, tpl.Intents())
}

func TestTemplates_Swap(t *testing.T) {
	set := nlg.Set{"Note": {"No"}}
	tpl := nlg.NewTemplates(set)
	set["Note"][0] = "mutated"

	got, err := tpl.Render("Note", nil)
	require.NoError(t, err)
	assert.Equal(t, "No", got)

	tpl.Swap(nlg.Set{"Note": {"Nope"}})
	got, err = tpl.Render("Note", nil)
	require.NoError(t, err)
	assert.Equal(t, "Nope", got)
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "set.yaml")
		require.NoError(t, os.WriteFile(path, []byte("Note:\n  - \"No\"\n"), 0o644))
		tpl, err := nlg.LoadTemplates(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"No"}, tpl.Pool("Note"))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "set.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"Note": ["Nope"]}`), 0o644))
		tpl, err := nlg.LoadTemplates(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Nope"}, tpl.Pool("Note"))
	})

	t.Run("empty pool", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"Note": []}`), 0o644))
		_, err := nlg.LoadTemplates(path)
		assert.ErrorContains(t, err, "no templates")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "set.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		_, err := nlg.LoadTemplates(path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := nlg.LoadTemplates(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
