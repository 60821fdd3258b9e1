package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/reel/internal/cli"
	"github.com/aretw0/reel/internal/config"
	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataDir = "../../data"

func settings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Default()
	s.Dialogue.OntologyPath = filepath.Join(dataDir, "ontology.json")
	s.Dialogue.DBPath = filepath.Join(dataDir, "movies.json")
	s.Simulation.CorpusPath = filepath.Join(dataDir, "corpus.json")
	s.Simulation.CatalogPath = filepath.Join(dataDir, "movies_metadata.csv")
	s.Simulation.Seed = 11
	s.Simulation.Parallelism = 2
	s.General.ExperienceLogs.Save = false
	s.General.ConversationLogs.Save = false
	s.Sessions.Path = t.TempDir()
	return &s
}

func components(t *testing.T, s *config.Settings) *cli.Components {
	t.Helper()
	c, err := cli.NewComponents(s, logging.NewNop(), domain.LifecycleHooks{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewComponents(t *testing.T) {
	c := components(t, settings(t))
	assert.Equal(t, []string{"genres"}, c.Ontology.Slots())
	require.NotNil(t, c.Database)

	a, err := c.NewAgent(0)
	require.NoError(t, err)
	a.Initialize()
	assert.NotEmpty(t, a.StartDialogue(context.Background()))
}

func TestNewComponents_UnsupportedDatabase(t *testing.T) {
	s := settings(t)
	s.Dialogue.DBPath = "movies.xml"
	_, err := cli.NewComponents(s, logging.NewNop(), domain.LifecycleHooks{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}

func TestSimulator_Run(t *testing.T) {
	ctx := context.Background()
	c := components(t, settings(t))
	sim, err := cli.NewSimulator(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "ms", sim.Mode.Value)
	assert.Positive(t, sim.Catalog.Len())

	results, err := sim.Run(ctx, 3, true)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NotEmpty(t, r.Agenda)
		assert.NotEmpty(t, r.Dialog)
		assert.NotNil(t, r.Persona)
	}
}

func TestSimulator_CatalogFromDatabase(t *testing.T) {
	s := settings(t)
	s.Simulation.CatalogPath = filepath.Join(t.TempDir(), "missing.csv")
	sim, err := cli.NewSimulator(context.Background(), components(t, s))
	require.NoError(t, err)
	assert.Equal(t, 20, sim.Catalog.Len())
}

func TestNewSessions_Encrypted(t *testing.T) {
	ctx := context.Background()
	s := settings(t)
	s.Sessions.Backend = "file"
	s.Sessions.Key = strings.Repeat("ab", 32)
	s.Sessions.Redact = []string{`\d{3}-\d{4}`}

	sessions, closer, err := cli.NewSessions(s, components(t, s))
	require.NoError(t, err)
	defer closer.Close()

	snap := &domain.Snapshot{
		SessionID: "s1",
		State:     domain.NewState([]string{"genres"}),
		Context:   domain.NewContext([]string{"name"}),
		History:   []string{"I like Comedy movies, call 555-1234"},
	}
	require.NoError(t, sessions.Save(ctx, "s1", snap))

	raw, err := os.ReadFile(filepath.Join(s.Sessions.Path, "s1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Comedy")

	loaded, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"I like Comedy movies, call ***"}, loaded.History)
}

func TestNewSessions_Errors(t *testing.T) {
	s := settings(t)
	c := components(t, s)

	s.Sessions.Key = "not-hex"
	_, _, err := cli.NewSessions(s, c)
	assert.Error(t, err)

	s.Sessions.Key = "abcd"
	_, _, err = cli.NewSessions(s, c)
	assert.Error(t, err)

	s.Sessions.Key = ""
	s.Sessions.Backend = "etcd"
	_, _, err = cli.NewSessions(s, c)
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}
