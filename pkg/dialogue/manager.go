// Package dialogue implements dialogue state tracking and the dialogue
// manager that drives the policy turn by turn.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/adapters/jsondb"
	"github.com/aretw0/reel/pkg/adapters/sqlite"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/policy"
	"github.com/aretw0/reel/pkg/ports"
)

// MaxDBResults caps the records returned by a lookup.
const MaxDBResults = 10

// DomainMovie enables offer tracking in the context.
const DomainMovie = "Movie"

// PolicyHandcrafted is the only built-in policy type.
const PolicyHandcrafted = "handcrafted"

// Config holds what a Manager needs. Ontology accepts an *ontology.Ontology
// or a file path; Database accepts a ports.Database or a path ending in
// ".db" (SQLite) or ".json".
type Config struct {
	Settings     any
	Ontology     any
	Database     any
	Domain       string
	AgentID      int
	AgentRole    string
	PolicyType   string
	ContextSlots []string
}

// Manager owns a Tracker and a Policy and turns user acts into system acts.
type Manager struct {
	settings  any
	ontology  *ontology.Ontology
	database  ports.Database
	domain    string
	agentID   int
	agentRole string

	tracker *Tracker
	policy  ports.Policy

	prevResult      []domain.Record
	dialogueCounter int
	entropies       bool

	rnd    *rand.Rand
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRand sets the random source shared by the manager and its handcrafted policy.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) {
		m.rnd = r
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithSlotEntropies enables computing slot entropies over lookup results.
func WithSlotEntropies(enabled bool) Option {
	return func(m *Manager) {
		m.entropies = enabled
	}
}

// WithPolicy replaces the configured policy.
func WithPolicy(p ports.Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// NewManager validates cfg and builds the tracker and policy.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	switch {
	case cfg.Settings == nil:
		return nil, &domain.ConfigError{Section: "DialogueManager", Key: "settings"}
	case cfg.Ontology == nil:
		return nil, &domain.ConfigError{Section: "DialogueManager", Key: "ontology"}
	case cfg.Database == nil:
		return nil, &domain.ConfigError{Section: "DialogueManager", Key: "database"}
	case cfg.Domain == "":
		return nil, &domain.ConfigError{Section: "DIALOGUE", Key: "domain"}
	}

	m := &Manager{
		settings:  cfg.Settings,
		domain:    cfg.Domain,
		agentID:   cfg.AgentID,
		agentRole: cfg.AgentRole,
		logger:    logging.NewNop(),
	}
	if m.agentRole == "" {
		m.agentRole = "system"
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var err error
	if m.ontology, err = resolveOntology(cfg.Ontology); err != nil {
		return nil, err
	}
	if m.database, err = resolveDatabase(cfg.Database); err != nil {
		return nil, err
	}

	if m.policy == nil {
		policyType := cfg.PolicyType
		if policyType == "" {
			policyType = PolicyHandcrafted
		}
		if policyType != PolicyHandcrafted {
			return nil, fmt.Errorf("%w: %q", domain.ErrNoPolicy, policyType)
		}
		if m.policy, err = policy.NewHandcrafted(m.ontology, policy.WithRand(m.rnd)); err != nil {
			return nil, err
		}
	}

	m.tracker = NewTracker(m.ontology.Slots(), cfg.ContextSlots, WithTrackerLogger(m.logger))
	return m, nil
}

func resolveOntology(src any) (*ontology.Ontology, error) {
	switch v := src.(type) {
	case *ontology.Ontology:
		return v, nil
	case string:
		return ontology.Load(v)
	default:
		return nil, fmt.Errorf("%w: unacceptable ontology type %T", domain.ErrUnsupportedSource, src)
	}
}

func resolveDatabase(src any) (ports.Database, error) {
	switch v := src.(type) {
	case ports.Database:
		return v, nil
	case string:
		switch {
		case strings.HasSuffix(v, ".db"):
			return sqlite.Open(v)
		case strings.HasSuffix(v, ".json"):
			return jsondb.Load(v)
		}
		return nil, fmt.Errorf("%w: unacceptable database %q", domain.ErrUnsupportedSource, v)
	default:
		return nil, fmt.Errorf("%w: unacceptable database type %T", domain.ErrUnsupportedSource, src)
	}
}

// Initialize prepares the manager for its first dialogue.
func (m *Manager) Initialize() {
	m.tracker.Initialize(nil)
	m.policy.Initialize()
	m.dialogueCounter = 0
	m.prevResult = nil
}

// Restart begins a new dialogue.
func (m *Manager) Restart(goal map[string]string) {
	m.tracker.Initialize(goal)
	m.policy.Restart()
	m.prevResult = nil
	m.dialogueCounter++
}

// ReceiveInput updates the state with a user turn and, when the user asks
// for an offer, with fresh database results. It returns the input acts.
func (m *Manager) ReceiveInput(ctx context.Context, acts []domain.Act) ([]domain.Act, error) {
	if err := m.tracker.UpdateState(acts); err != nil {
		return nil, fmt.Errorf("failed to update state: %w", err)
	}
	results, entropies, err := m.DBLookup(ctx, acts)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		m.tracker.UpdateStateDB(acts, results, entropies)
	}
	return acts, nil
}

// DBLookup queries the database when acts contain an offer. Results are
// shuffled and cached; an empty lookup reuses the cached results.
func (m *Manager) DBLookup(ctx context.Context, acts []domain.Act) ([]domain.Record, map[string]*float64, error) {
	state := m.tracker.State()
	var results []domain.Record
	queried := false

	if domain.HasIntent(acts, domain.IntentOffer) {
		var err error
		results, err = m.database.Lookup(ctx, state)
		m.emitLookup(ctx, len(results), false, err)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to look up database: %w", err)
		}
		state.RequestedSlotFilled = nil
		queried = true
	}

	switch {
	case len(results) > 0:
		m.rnd.Shuffle(len(results), func(i, j int) { results[i], results[j] = results[j], results[i] })
		m.prevResult = results
	case len(m.prevResult) > 0:
		results = m.prevResult
		if queried {
			m.logger.Debug("no database match, reusing previous results", "results", len(results))
			m.emitLookup(ctx, len(results), true, nil)
		}
	}

	if len(results) == 0 {
		return nil, map[string]*float64{}, nil
	}
	if len(results) > MaxDBResults {
		results = results[:MaxDBResults]
	}
	return domain.CloneRecords(results), m.slotEntropies(results), nil
}

// slotEntropies maps every system-requestable slot to the Shannon entropy of
// its values over results, or to nil when the computation is disabled.
func (m *Manager) slotEntropies(results []domain.Record) map[string]*float64 {
	out := make(map[string]*float64, len(m.ontology.SystemRequestable))
	for _, slot := range m.ontology.SystemRequestable {
		if !m.entropies {
			out[slot] = nil
			continue
		}
		counts := map[string]int{}
		total := 0
		for _, r := range results {
			for _, v := range splitValues(r[slot]) {
				counts[v]++
				total++
			}
		}
		var h float64
		for _, c := range counts {
			p := float64(c) / float64(total)
			h -= p * math.Log2(p)
		}
		out[slot] = &h
	}
	return out
}

func splitValues(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '|' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GenerateOutput consults the policy and repairs underspecified acts.
func (m *Manager) GenerateOutput(ctx context.Context) ([]domain.Act, error) {
	state := m.tracker.State()
	dctx := m.tracker.Context()

	sysActs := domain.Dedupe(m.policy.NextAction(state, dctx))
	out := domain.CloneActs(sysActs)
	var added []domain.Act

	for _, act := range sysActs {
		if act.Intent == domain.IntentAckFeedback {
			dctx.FeedbackGiven = false
		}

		switch act.Intent {
		case domain.IntentCantHelp:
			added = append(added, domain.NewAct(domain.IntentCantHelp))

		case domain.IntentOffer:
			if len(act.Params) > 0 {
				if m.domain == DomainMovie {
					for _, p := range act.Params {
						if !slices.Contains(m.tracker.ContextSlots(), p.Slot) {
							continue
						}
						if err := dctx.AddOffer(p.Slot, p.Value); err != nil {
							return nil, fmt.Errorf("failed to track offer: %w", err)
						}
					}
				}
				continue
			}
			out = removeAct(out, act)
			if !state.HasItemInFocus() {
				continue
			}
			name := state.ItemInFocus.Name()
			if name == "" {
				name = policy.UnknownItem
			}
			added = append(added, domain.NewAct(domain.IntentOffer, domain.Item("name", name)))
			if len(sysActs) == 1 {
				for _, slot := range state.FilledSlots() {
					value, ok := state.ItemInFocus[slot]
					switch {
					case !ok:
						added = append(added, domain.NewAct(domain.IntentInform, domain.Item(slot, policy.NoInfo)))
					case slot != "id" && slot != "name" && slot != state.RequestedSlot:
						added = append(added, domain.NewAct(domain.IntentInform, domain.Item(slot, value)))
					}
				}
			}

		case domain.IntentInform:
			if m.agentRole == "system" {
				if !act.IsEmpty() {
					continue
				}
				added = append(added, m.resolveInform(state, act))
			}
			out = removeAct(out, act)

		case domain.IntentRequest:
			if len(act.Params) > 0 {
				continue
			}
			added = append(added, domain.NewAct(domain.IntentRequest, domain.Item(m.pickRequestSlot(state), "")))
			out = removeAct(out, act)
		}
	}

	for _, a := range added {
		if !domain.ContainsAct(out, a) {
			out = append(out, a)
		}
	}
	m.tracker.UpdateStateSysAct(out)
	return out, nil
}

func (m *Manager) resolveInform(state *domain.State, act domain.Act) domain.Act {
	slot := ""
	if len(act.Params) > 0 {
		slot = act.Params[0].Slot
	}
	if slot == "" {
		slot = state.RequestedSlot
	}
	if slot == "" {
		filled := state.FilledSlots()
		if len(filled) == 0 {
			filled = state.Slots
		}
		slot = filled[m.rnd.IntN(len(filled))]
	}

	value := state.ItemInFocus[slot]
	switch {
	case value == "":
		return domain.NewAct(domain.IntentInform, domain.Item(slot, policy.NoInfo))
	case slot == "name":
		return domain.NewAct(domain.IntentOffer, domain.Item(slot, value))
	default:
		return domain.NewAct(domain.IntentInform, domain.Item(slot, value))
	}
}

// pickRequestSlot returns a random unfilled slot, else a random slot other
// than the last one.
func (m *Manager) pickRequestSlot(state *domain.State) string {
	if unfilled := state.UnfilledSlots(); len(unfilled) > 0 {
		return unfilled[m.rnd.IntN(len(unfilled))]
	}
	pool := state.Slots
	if len(pool) > 1 {
		pool = pool[:len(pool)-1]
	}
	return pool[m.rnd.IntN(len(pool))]
}

func removeAct(acts []domain.Act, target domain.Act) []domain.Act {
	if i := slices.IndexFunc(acts, target.Equal); i >= 0 {
		return slices.Delete(acts, i, i+1)
	}
	return acts
}

func (m *Manager) emitLookup(ctx context.Context, results int, cached bool, err error) {
	if m.hooks.OnLookup == nil {
		return
	}
	m.hooks.OnLookup(ctx, &domain.LookupEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventLookup, Dialogue: m.dialogueCounter},
		Results:   results,
		Cached:    cached,
		Err:       err,
	})
}

// State returns the live dialogue state.
func (m *Manager) State() *domain.State { return m.tracker.State() }

// Context returns the live dialogue context.
func (m *Manager) Context() *domain.Context { return m.tracker.Context() }

// Ontology returns the resolved ontology.
func (m *Manager) Ontology() *ontology.Ontology { return m.ontology }

// DialogueCounter returns how many dialogues were restarted.
func (m *Manager) DialogueCounter() int { return m.dialogueCounter }

// AtTerminalState reports whether the dialogue is over.
func (m *Manager) AtTerminalState() bool { return m.tracker.State().IsTerminal() }

// Snapshot captures the manager's resumable state.
func (m *Manager) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		State:           m.tracker.State().Clone(),
		Context:         m.tracker.Context().Clone(),
		DialogueCounter: m.dialogueCounter,
		LastResult:      domain.CloneRecords(m.prevResult),
		UpdatedAt:       time.Now().UTC(),
	}
}

// Restore resumes from a snapshot taken by Snapshot.
func (m *Manager) Restore(snap *domain.Snapshot) {
	c := snap.Clone()
	if c.State == nil {
		c.State = domain.NewState(m.ontology.Slots())
	}
	if c.Context == nil {
		c.Context = domain.NewContext(m.tracker.ContextSlots())
	}
	m.tracker.Restore(c.State, c.Context)
	m.dialogueCounter = c.DialogueCounter
	m.prevResult = c.LastResult
}
