package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/reel/pkg/conversation"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/aretw0/reel/pkg/nlu"
	"github.com/aretw0/reel/pkg/simulation"
)

// Simulator builds simulated users over a shared corpus, catalog and
// template set.
type Simulator struct {
	Components *Components
	Stats      *simulation.Stats
	Annotator  *nlu.IntentAnnotator
	Linker     *nlu.EntityLinker
	Templates  *nlg.Templates
	Profiles   *simulation.ProfileGenerator
	Catalog    *nlu.Catalog
	Mode       simulation.Mode
	Kind       simulation.AgendaKind
}

// NewSimulator loads the simulation resources named by the settings. The
// catalog falls back to the agent's database when no catalog file is set,
// and the profiles fall back to random ones without MovieLens ratings.
func NewSimulator(ctx context.Context, c *Components) (*Simulator, error) {
	s := c.Settings.Simulation
	mode, err := simulation.ParseMode(s.Mode)
	if err != nil {
		return nil, err
	}
	kind, err := simulation.ParseAgendaKind(s.Agenda)
	if err != nil {
		return nil, err
	}

	corpus, err := simulation.LoadCorpus(s.CorpusPath)
	if err != nil {
		return nil, err
	}
	stats := simulation.BuildStats(corpus)

	catalog, err := loadCatalog(ctx, c, s.CatalogPath)
	if err != nil {
		return nil, err
	}

	var templates *nlg.Templates
	if s.TemplatesPath != "" {
		templates, err = nlg.LoadTemplates(s.TemplatesPath, nlg.WithTemplateRand(c.Rand(0, 3)))
	} else {
		templates, err = nlg.Builtin(mode.Value, nlg.WithTemplateRand(c.Rand(0, 3)))
	}
	if err != nil {
		return nil, err
	}

	var profiles *simulation.ProfileGenerator
	if s.MoviesPath != "" && s.RatingsPath != "" {
		if profiles, err = simulation.LoadProfileGenerator(s.MoviesPath, s.RatingsPath); err != nil {
			return nil, err
		}
	}

	c.Logger.Debug("simulator ready",
		"mode", mode.Value,
		"agenda", kind.Value,
		"dialogues", len(corpus),
		"catalog", catalog.Len(),
	)
	return &Simulator{
		Components: c,
		Stats:      stats,
		Annotator:  nlu.NewIntentAnnotator(stats.IntentMap),
		Linker:     nlu.NewEntityLinker(catalog),
		Templates:  templates,
		Profiles:   profiles,
		Catalog:    catalog,
		Mode:       mode,
		Kind:       kind,
	}, nil
}

func loadCatalog(ctx context.Context, c *Components, path string) (*nlu.Catalog, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return nlu.LoadCatalog(path)
		}
		c.Logger.Warn("catalog not found, using the database", "path", path)
	}
	records, err := c.Database.Lookup(ctx, domain.NewState(c.Ontology.Slots()))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog from database: %w", err)
	}
	return nlu.CatalogFromRecords(records), nil
}

// NewProfile draws the profile of user i.
func (sim *Simulator) NewProfile(i int) (*simulation.Profile, error) {
	r := sim.Components.Rand(i, 4)
	if sim.Profiles != nil {
		return sim.Profiles.Generate(r, simulation.DefaultProfileMovies, simulation.DefaultProfileGenres)
	}
	return simulation.RandomProfile(r, sim.Catalog.Titles(), sim.Components.Ontology.Values("genres"),
		simulation.DefaultProfileMovies, simulation.DefaultProfileGenres), nil
}

// NewUser builds simulated user i.
func (sim *Simulator) NewUser(i int) (*simulation.User, error) {
	profile, err := sim.NewProfile(i)
	if err != nil {
		return nil, err
	}
	return simulation.NewUser(sim.Stats, sim.Templates, sim.Annotator, profile,
		simulation.WithMode(sim.Mode),
		simulation.WithLinker(sim.Linker),
		simulation.WithUserRand(sim.Components.Rand(i, 5)),
		simulation.WithUserLogger(sim.Components.Logger.With(slog.Int("user", i))),
	), nil
}

// Factory returns the conversation factory of a batch.
func (sim *Simulator) Factory() conversation.Factory {
	return func(i int) (*conversation.Manager, error) {
		user, err := sim.NewUser(i)
		if err != nil {
			return nil, err
		}
		a, err := sim.Components.NewAgent(i)
		if err != nil {
			return nil, err
		}
		return conversation.NewManager(user, a,
			conversation.WithLogger(sim.Components.Logger),
			conversation.WithMaxTurns(sim.Components.Settings.Simulation.MaxTurns),
		), nil
	}
}

// Run plays the configured number of dialogues.
func (sim *Simulator) Run(ctx context.Context, dialogues int, persona bool) ([]*conversation.Result, error) {
	return conversation.RunBatch(ctx, conversation.BatchConfig{
		Dialogues:   dialogues,
		Parallelism: sim.Components.Settings.Simulation.Parallelism,
		Kind:        sim.Kind,
		Persona:     persona,
	}, sim.Factory())
}
