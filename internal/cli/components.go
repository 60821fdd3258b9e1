// Package cli wires reel's packages together from settings for the reel
// command.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/reel/internal/config"
	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/adapters/jsondb"
	"github.com/aretw0/reel/pkg/adapters/sqlite"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/dialogue"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/aretw0/reel/pkg/nlu"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/aretw0/reel/pkg/recorder"
)

// Components are the read-only pieces shared by every agent of a process.
type Components struct {
	Settings *config.Settings
	Logger   *slog.Logger
	Ontology *ontology.Ontology
	Database ports.Database
	NLU      *nlu.ActParser
	Hooks    domain.LifecycleHooks

	seed    uint64
	closers []io.Closer
	convLog io.WriteCloser
}

// NewLogger builds the application logger from settings. The closer
// flushes a log file, if one is configured.
func NewLogger(s *config.Settings, debug bool) (*slog.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(s.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	logger, closer := logging.FromOptions(logging.Options{
		Level:  level,
		Format: s.Logging.Format,
		File:   s.Logging.File,
	})
	return logger, closer, nil
}

// NewComponents loads the ontology and the database named by settings.
func NewComponents(s *config.Settings, logger *slog.Logger, hooks domain.LifecycleHooks) (*Components, error) {
	o, err := ontology.Load(s.Dialogue.OntologyPath)
	if err != nil {
		return nil, err
	}
	src, err := s.Dialogue.DatabaseSource()
	if err != nil {
		return nil, err
	}

	c := &Components{
		Settings: s,
		Logger:   logger,
		Ontology: o,
		NLU:      nlu.NewActParser(o),
		Hooks:    hooks,
		seed:     s.Simulation.Seed,
	}
	switch strings.ToLower(filepath.Ext(src)) {
	case ".db":
		db, err := sqlite.Open(src)
		if err != nil {
			return nil, err
		}
		c.Database = db
		c.closers = append(c.closers, db)
	case ".json":
		if c.Database, err = jsondb.Load(src); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: database %q", domain.ErrUnsupportedSource, src)
	}

	if logs := s.General.ConversationLogs; logs.Save && logs.Path != "" {
		c.convLog = recorder.OpenLog(logs.Path, 0, 3)
		c.closers = append(c.closers, c.convLog)
	}
	logger.Debug("components ready", "ontology", s.Dialogue.OntologyPath, "database", src)
	return c, nil
}

// Rand returns the source of stream i. A zero seed draws a random one.
func (c *Components) Rand(i int, stream uint64) *rand.Rand {
	if c.seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(c.seed+uint64(i), stream))
}

// NewAgent builds agent AGENT_0 of the settings. i selects the random
// stream and, when greater than zero, suffixes the experience log so that
// concurrent agents do not write the same file.
func (c *Components) NewAgent(i int) (*agent.Agent, error) {
	s := c.Settings
	cfg := s.Agent(0)

	dm, err := dialogue.NewManager(dialogue.Config{
		Settings:     s,
		Ontology:     c.Ontology,
		Database:     c.Database,
		Domain:       s.Dialogue.Domain,
		AgentID:      0,
		AgentRole:    cfg.Role,
		PolicyType:   cfg.DM.Policy.Type,
		ContextSlots: cfg.DM.ContextSlots,
	},
		dialogue.WithLogger(c.Logger),
		dialogue.WithRand(c.Rand(i, 1)),
		dialogue.WithHooks(c.Hooks),
		dialogue.WithSlotEntropies(cfg.DM.SlotEntropies),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialogue manager: %w", err)
	}

	opts := []agent.Option{
		agent.WithLogger(c.Logger),
		agent.WithHooks(c.Hooks),
		agent.WithMaxTurns(cfg.MaxTurns),
		agent.WithNLPAnnotations(s.General.ConversationLogs.NLP),
	}
	if cfg.NLU.Enabled {
		opts = append(opts, agent.WithNLU(c.NLU))
	}
	if cfg.NLG.Enabled {
		opts = append(opts, agent.WithNLG(nlg.NewMovieNLG(nlg.WithRand(c.Rand(i, 2)))))
	}
	if c.convLog != nil {
		opts = append(opts, agent.WithConversationLog(c.convLog))
	}
	if logs := s.General.ExperienceLogs; logs.Save && logs.Path != "" {
		opts = append(opts, agent.WithEpisodes(recorder.NewEpisodes(indexedPath(logs.Path, i)), true))
	}
	return agent.New(dm, opts...), nil
}

// Close releases the database and log files.
func (c *Components) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func indexedPath(path string, i int) string {
	if i == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + strconv.Itoa(i) + ext
}
