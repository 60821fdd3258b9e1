package simulation_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/reel/pkg/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCorpus(t *testing.T) {
	in := `{"b": [["user", "Hello", "Non-disclose"], ["agent", "Shall we start?", "Elicit"]], "a": []}`
	c, err := simulation.ReadCorpus(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, c.IDs())
	require.Len(t, c["b"], 2)
	assert.Equal(t, simulation.Turn{Speaker: "agent", Text: "Shall we start?", Intent: "Elicit"}, c["b"][1])
	assert.Equal(t, []string{"Non-disclose"}, simulation.UserIntents(c["b"]))
}

func TestReadCorpus_BadTurn(t *testing.T) {
	_, err := simulation.ReadCorpus(strings.NewReader(`{"a": [["user", "Hello"]]}`))
	assert.ErrorContains(t, err, "3 fields")
}

func TestTurn_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(simulation.Turn{Speaker: "user", Text: "Hi", Intent: "Non-disclose"})
	require.NoError(t, err)
	assert.JSONEq(t, `["user", "Hi", "Non-disclose"]`, string(data))
}

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	data, err := json.Marshal(fixtureCorpus())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := simulation.LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, fixtureCorpus(), c)

	_, err = simulation.LoadCorpus(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
