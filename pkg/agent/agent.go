// Package agent implements the conversational agent: user text goes
// through the NLU into the dialogue manager, whose acts are rendered back
// to text by the NLG.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/dialogue"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/aretw0/reel/pkg/recorder"
)

// MaxTurns is the default turn limit after which the agent says bye.
const MaxTurns = 100

// Agent runs one dialogue at a time over a dialogue manager.
type Agent struct {
	dm     *dialogue.Manager
	nlu    ports.NLU
	nlg    ports.NLG
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	maxTurns int
	annotate bool

	episodes     *recorder.Episodes
	saveEpisodes bool
	conversation *recorder.Conversation
	convLog      io.Writer

	turn      int
	episode   int
	prevState *domain.State
	currState *domain.State
	prevActs  []domain.Act
	prevIn    string
	prevOut   string
}

// Option configures an Agent.
type Option func(*Agent)

// WithNLU sets the language understanding component. Without one,
// ContinueDialogue fails with domain.ErrNoNLU.
func WithNLU(n ports.NLU) Option {
	return func(a *Agent) {
		a.nlu = n
	}
}

// WithNLG sets the language generation component. Without one, system acts
// are returned in their textual form.
func WithNLG(n ports.NLG) Option {
	return func(a *Agent) {
		a.nlg = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithHooks registers lifecycle callbacks for turns and dialogues.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(a *Agent) {
		a.hooks = h
	}
}

// WithMaxTurns overrides MaxTurns.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		a.maxTurns = n
	}
}

// WithNLPAnnotations records the NLU and NLG acts in the transcript.
func WithNLPAnnotations(enabled bool) Option {
	return func(a *Agent) {
		a.annotate = enabled
	}
}

// WithEpisodes sets the experience recorder; save writes it at the end of
// every dialogue.
func WithEpisodes(e *recorder.Episodes, save bool) Option {
	return func(a *Agent) {
		a.episodes = e
		a.saveEpisodes = save
	}
}

// WithConversationLog flushes the transcript to w at the end of every
// dialogue.
func WithConversationLog(w io.Writer) Option {
	return func(a *Agent) {
		a.convLog = w
	}
}

// New creates an agent over dm.
func New(dm *dialogue.Manager, opts ...Option) *Agent {
	a := &Agent{
		dm:           dm,
		logger:       logging.NewNop(),
		maxTurns:     MaxTurns,
		annotate:     true,
		episodes:     recorder.NewEpisodes(""),
		conversation: recorder.NewConversation(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize resets the agent and its dialogue manager.
func (a *Agent) Initialize() {
	a.episode = 0
	a.turn = 0
	a.dm.Initialize()
	a.resetTurnState()
}

func (a *Agent) resetTurnState() {
	a.prevState = nil
	a.currState = nil
	a.prevActs = nil
	a.prevIn = ""
	a.prevOut = ""
}

// StartDialogue restarts the manager and returns the welcome message.
func (a *Agent) StartDialogue(ctx context.Context) string {
	a.turn = 0
	a.dm.Restart(nil)
	a.episodes.NewDialogue()
	a.conversation.NewDialogue()

	sys := []domain.Act{domain.NewAct(domain.IntentWelcome)}
	text := a.render(sys)
	a.episodes.Record(a.dm.State(), a.dm.State(), sys, "", text)
	a.turn++
	a.resetTurnState()

	a.logger.Debug("dialogue started", "dialogue", a.dm.DialogueCounter())
	if a.hooks.OnDialogueStart != nil {
		a.hooks.OnDialogueStart(ctx, &domain.DialogueEvent{
			EventBase: a.event(domain.EventDialogueStart),
		})
	}
	return text
}

// ContinueDialogue processes one user utterance and returns the system's
// reply. Past the turn limit the reply is a forced bye.
func (a *Agent) ContinueDialogue(ctx context.Context, utterance string) (string, error) {
	a.conversation.Record("USER > " + utterance)
	if a.nlu == nil {
		return "", domain.ErrNoNLU
	}
	userActs, err := a.nlu.ProcessInput(ctx, utterance, a.dm.State(), a.dm.Context())
	if err != nil {
		return "", fmt.Errorf("failed to process input: %w", err)
	}
	if a.annotate {
		a.conversation.Record("SYSTEM (NLU)> " + domain.JoinActs(userActs))
	}
	if _, err := a.dm.ReceiveInput(ctx, userActs); err != nil {
		return "", err
	}
	a.currState = a.dm.State().Clone()

	var sys []domain.Act
	forced := a.turn >= a.maxTurns
	if forced {
		a.logger.Info("terminating dialogue after too many turns", "turns", a.turn)
		sys = []domain.Act{domain.NewAct(domain.IntentBye)}
		state := a.dm.State()
		state.LastSysActs = domain.CloneActs(sys)
		state.Terminal = true
	} else if sys, err = a.dm.GenerateOutput(ctx); err != nil {
		return "", fmt.Errorf("failed to generate output: %w", err)
	}

	text := a.render(sys)
	if a.prevState != nil {
		a.episodes.Record(a.prevState, a.currState, a.prevActs, utterance, text)
	}
	a.turn++
	a.prevState = a.currState.Clone()
	a.prevActs = domain.CloneActs(sys)
	a.prevIn = utterance
	a.prevOut = text

	if a.hooks.OnTurn != nil {
		a.hooks.OnTurn(ctx, &domain.TurnEvent{
			EventBase: a.event(domain.EventTurn),
			Turn:      a.turn,
			UserActs:  domain.CloneActs(userActs),
			SysActs:   domain.CloneActs(sys),
			Forced:    forced,
		})
	}
	return text, nil
}

// render turns system acts into text, recording both in the transcript.
func (a *Agent) render(sys []domain.Act) string {
	if a.annotate {
		a.conversation.Record("SYSTEM (NLG)> " + domain.JoinActs(sys))
	}
	if a.nlg == nil {
		return domain.JoinActs(sys)
	}
	text := a.nlg.Render(sys)
	a.conversation.Record("SYSTEM > " + text)
	return text
}

// EndDialogue records the dialogue summary and the final state, then saves
// the logs that are enabled.
func (a *Agent) EndDialogue(ctx context.Context) error {
	dctx := a.dm.Context().Clone()
	a.conversation.RecordSummary("context", dctx.Params)
	a.conversation.RecordSummary("reviews", dctx.Reviews)
	if a.currState != nil {
		a.episodes.Record(a.currState, a.currState, a.prevActs, a.prevIn, a.prevOut)
	}
	a.episode++

	if a.hooks.OnDialogueEnd != nil {
		a.hooks.OnDialogueEnd(ctx, &domain.DialogueEvent{
			EventBase: a.event(domain.EventDialogueEnd),
			Turns:     a.turn,
			Terminal:  a.Terminated(),
		})
	}

	if a.saveEpisodes {
		if err := a.episodes.Save(); err != nil {
			return fmt.Errorf("failed to save episodes: %w", err)
		}
	}
	if a.convLog != nil {
		if err := a.conversation.Flush(a.convLog); err != nil {
			return err
		}
	}
	return nil
}

// Terminated reports whether the dialogue reached a terminal state.
func (a *Agent) Terminated() bool { return a.dm.AtTerminalState() }

// Turn returns the number of system turns of the current dialogue.
func (a *Agent) Turn() int { return a.turn }

// Episode returns the number of finished dialogues.
func (a *Agent) Episode() int { return a.episode }

// Manager returns the dialogue manager.
func (a *Agent) Manager() *dialogue.Manager { return a.dm }

// Conversation returns the transcript recorder.
func (a *Agent) Conversation() *recorder.Conversation { return a.conversation }

// Episodes returns the experience recorder.
func (a *Agent) Episodes() *recorder.Episodes { return a.episodes }

// Snapshot captures the dialogue so that it can be resumed by Restore.
func (a *Agent) Snapshot() *domain.Snapshot {
	snap := a.dm.Snapshot()
	snap.Turn = a.turn
	snap.History = a.conversation.Lines()
	return snap
}

// Restore resumes a dialogue captured by Snapshot.
func (a *Agent) Restore(snap *domain.Snapshot) {
	a.dm.Restore(snap)
	a.turn = snap.Turn
	a.resetTurnState()
	a.currState = a.dm.State().Clone()
	a.prevState = a.currState.Clone()
	if a.currState != nil {
		a.prevActs = domain.CloneActs(a.currState.LastSysActs)
	}
	a.conversation.NewDialogue()
	for _, line := range snap.History {
		a.conversation.Record(line)
	}
}

func (a *Agent) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Dialogue: a.dm.DialogueCounter()}
}
