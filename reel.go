package reel

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/dialogue"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/aretw0/reel/pkg/nlu"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/ports"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Domain is the dialogue domain served by NewAgent.
const Domain = "Movie"

type options struct {
	ontology *ontology.Ontology
	database ports.Database
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	seed     uint64
	maxTurns int
}

// Option configures NewAgent.
type Option func(*options)

// WithOntology replaces the built-in movie ontology.
func WithOntology(o *ontology.Ontology) Option {
	return func(opts *options) {
		opts.ontology = o
	}
}

// WithDatabase looks movies up in db instead of the records given to NewAgent.
func WithDatabase(db ports.Database) Option {
	return func(opts *options) {
		opts.database = db
	}
}

// WithLogger sets a structured logger for the agent and its dialogue manager.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

// WithHooks registers observability hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(opts *options) {
		opts.hooks = h
	}
}

// WithSeed makes the agent's choices reproducible. Zero picks a random seed.
func WithSeed(seed uint64) Option {
	return func(opts *options) {
		opts.seed = seed
	}
}

// WithMaxTurns ends a dialogue after n system turns.
func WithMaxTurns(n int) Option {
	return func(opts *options) {
		opts.maxTurns = n
	}
}

// NewAgent builds a movie recommending agent over an in-memory catalog of
// records, with the rule-based NLU and the template NLG enabled.
func NewAgent(records []domain.Record, opts ...Option) (*agent.Agent, error) {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.ontology == nil {
		o.ontology = ontology.Default()
	}
	if o.database == nil {
		o.database = memory.NewDatabase(records)
	}
	seed := o.seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	dm, err := dialogue.NewManager(dialogue.Config{
		Settings: o,
		Ontology: o.ontology,
		Database: o.database,
		Domain:   Domain,
	},
		dialogue.WithLogger(o.logger),
		dialogue.WithHooks(o.hooks),
		dialogue.WithRand(rand.New(rand.NewPCG(seed, 1))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialogue manager: %w", err)
	}

	agentOpts := []agent.Option{
		agent.WithLogger(o.logger),
		agent.WithHooks(o.hooks),
		agent.WithNLU(nlu.NewActParser(o.ontology)),
		agent.WithNLG(nlg.NewMovieNLG(nlg.WithRand(rand.New(rand.NewPCG(seed, 2))))),
	}
	if o.maxTurns > 0 {
		agentOpts = append(agentOpts, agent.WithMaxTurns(o.maxTurns))
	}
	return agent.New(dm, agentOpts...), nil
}
