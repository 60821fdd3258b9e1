package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/simulation"
)

// MaxTurns bounds a simulated dialogue when the user never runs out of
// agenda items.
const MaxTurns = 200

// greetings open the dialogue instead of being passed to the agent.
var greetings = []string{"hi", "hello", "go"}

// Result is the outcome of one simulated dialogue.
type Result struct {
	// Agenda is the agenda the user started with, top first.
	Agenda []string          `json:"agenda"`
	Dialog []simulation.Turn `json:"dialog"`
	// Persona is the user profile after the dialogue, including the
	// opinions committed to during it. Nil unless persona was requested.
	Persona    *simulation.Profile `json:"persona,omitempty"`
	Terminated bool                `json:"terminated"`
	// Aborted explains why the dialogue ended before the user said stop.
	Aborted string `json:"aborted,omitempty"`
}

// Turns returns the number of system turns in the dialogue.
func (r *Result) Turns() int {
	n := 0
	for _, t := range r.Dialog {
		if t.Speaker == simulation.AgentTag {
			n++
		}
	}
	return n
}

// Manager runs simulated dialogues between a user and an agent.
type Manager struct {
	user     *simulation.User
	agent    *agent.Agent
	logger   *slog.Logger
	maxTurns int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMaxTurns overrides MaxTurns.
func WithMaxTurns(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxTurns = n
		}
	}
}

// NewManager pairs a simulated user with an agent.
func NewManager(user *simulation.User, a *agent.Agent, opts ...Option) *Manager {
	m := &Manager{
		user:     user,
		agent:    a,
		logger:   logging.NewNop(),
		maxTurns: MaxTurns,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// User returns the simulated user.
func (m *Manager) User() *simulation.User { return m.user }

// Agent returns the agent.
func (m *Manager) Agent() *agent.Agent { return m.agent }

// Run plays one dialogue. A fresh agenda of kind is sampled unless kind is
// empty, in which case the agenda already set on the user is used. The
// dialogue ends when the user says stop, after the user has answered a
// terminal system turn, or at the turn limit. A user that has no way to
// phrase its intent ends the dialogue early with Result.Aborted set.
func (m *Manager) Run(ctx context.Context, kind simulation.AgendaKind, persona bool) (*Result, error) {
	if kind.Value != "" {
		if err := m.user.InitAgenda(kind); err != nil {
			return nil, err
		}
	}
	res := &Result{Agenda: topFirst(m.user.Agenda())}
	m.agent.Initialize()

	utterance := m.user.InitDialog()
	res.Dialog = append(res.Dialog, userTurn(utterance, m.user.CurrentIntent()))

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if strings.EqualFold(utterance, simulation.StopIntent) {
			break
		}
		if res.Turns() >= m.maxTurns {
			res.Aborted = fmt.Sprintf("turn limit of %d reached", m.maxTurns)
			break
		}

		var system string
		if isGreeting(utterance) {
			system = m.agent.StartDialogue(ctx)
		} else {
			var err error
			if system, err = m.agent.ContinueDialogue(ctx, utterance); err != nil {
				return res, fmt.Errorf("failed to continue dialogue: %w", err)
			}
		}

		resp, err := m.user.GenerateResponse([]string{system}, persona)
		if errors.Is(err, domain.ErrUnknownIntent) {
			m.logger.Warn("simulated user cannot respond", "intent", m.user.CurrentIntent(), "err", err)
			res.Dialog = append(res.Dialog, agentTurn(system, resp.BotIntents))
			res.Aborted = err.Error()
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to generate user response: %w", err)
		}

		utterance = resp.Text
		res.Dialog = append(res.Dialog,
			agentTurn(system, resp.BotIntents),
			userTurn(utterance, m.user.CurrentIntent()),
		)
		m.logger.Debug("turn", "system", system, "user", utterance, "intent", m.user.CurrentIntent())

		if m.agent.Terminated() {
			break
		}
	}

	res.Terminated = m.agent.Terminated()
	if persona {
		res.Persona = m.user.Profile().Clone()
	}
	if err := m.agent.EndDialogue(ctx); err != nil {
		return res, fmt.Errorf("failed to end dialogue: %w", err)
	}
	return res, nil
}

func isGreeting(utterance string) bool {
	return slices.Contains(greetings, strings.ToLower(strings.TrimSpace(utterance)))
}

func userTurn(text, intent string) simulation.Turn {
	return simulation.Turn{Speaker: simulation.UserTag, Text: text, Intent: intent}
}

func agentTurn(text string, intents []string) simulation.Turn {
	intent := ""
	if len(intents) > 0 {
		intent = intents[0]
	}
	return simulation.Turn{Speaker: simulation.AgentTag, Text: text, Intent: intent}
}

// topFirst lists an agenda stack in pop order.
func topFirst(a simulation.Agenda) []string {
	out := slices.Clone(a)
	slices.Reverse(out)
	return out
}
