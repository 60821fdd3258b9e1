package agent_test

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/dialogue"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/aretw0/reel/pkg/nlu"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T, opts ...agent.Option) *agent.Agent {
	t.Helper()
	o := ontology.Default()
	dm, err := dialogue.NewManager(dialogue.Config{
		Settings: map[string]any{},
		Ontology: o,
		Database: memory.NewDatabase(ports.ContractMovies),
		Domain:   dialogue.DomainMovie,
	}, dialogue.WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	opts = append([]agent.Option{
		agent.WithNLU(nlu.NewActParser(o)),
		agent.WithNLG(nlg.NewMovieNLG(nlg.WithRand(rand.New(rand.NewPCG(3, 4))))),
	}, opts...)
	a := agent.New(dm, opts...)
	a.Initialize()
	return a
}

func TestAgent_Dialogue(t *testing.T) {
	ctx := context.Background()
	var turns []*domain.TurnEvent
	var ended *domain.DialogueEvent
	var log bytes.Buffer
	a := newAgent(t,
		agent.WithConversationLog(&log),
		agent.WithHooks(domain.LifecycleHooks{
			OnTurn:        func(_ context.Context, e *domain.TurnEvent) { turns = append(turns, e) },
			OnDialogueEnd: func(_ context.Context, e *domain.DialogueEvent) { ended = e },
		}),
	)

	welcome := a.StartDialogue(ctx)
	assert.NotEmpty(t, welcome)
	assert.Equal(t, 1, a.Turn())

	reply, err := a.ContinueDialogue(ctx, "I like comedy movies")
	require.NoError(t, err)
	focus := a.Manager().State().ItemInFocus.Name()
	assert.Contains(t, []string{"Up", "Toy Story"}, focus)
	assert.Contains(t, reply, `"`+focus+`"`)
	assert.Equal(t, "Comedy", a.Manager().State().SlotsFilled["genres"])
	assert.False(t, a.Terminated())

	reply, err = a.ContinueDialogue(ctx, "Thanks, bye")
	require.NoError(t, err)
	assert.True(t, a.Terminated())
	assert.True(t, domain.HasIntent(a.Manager().State().LastSysActs, domain.IntentBye))
	assert.True(t, strings.HasPrefix(reply, "Thank you, Goodbye") || strings.HasPrefix(reply, "Bye. Hope you liked it"), reply)

	require.Len(t, turns, 2)
	assert.Equal(t, 2, turns[0].Turn)
	assert.False(t, turns[1].Forced)

	require.NoError(t, a.EndDialogue(ctx))
	require.NotNil(t, ended)
	assert.True(t, ended.Terminal)
	assert.Equal(t, 1, a.Episode())

	out := log.String()
	assert.Contains(t, out, "USER > I like comedy movies")
	assert.Contains(t, out, "SYSTEM (NLU)> inform(genres = Comedy); offer()")
	assert.Contains(t, out, `"key":"context"`)

	dialogues := a.Episodes().Dialogues()
	require.Len(t, dialogues, 1)
	assert.Len(t, dialogues[0], 3, "welcome, second turn and final state")
}

func TestAgent_MaxTurns(t *testing.T) {
	ctx := context.Background()
	a := newAgent(t, agent.WithMaxTurns(1))
	a.StartDialogue(ctx)

	reply, err := a.ContinueDialogue(ctx, "I like comedy movies")
	require.NoError(t, err)
	assert.True(t, a.Terminated())
	assert.NotContains(t, reply, "movie named")
	assert.Equal(t, []domain.Act{domain.NewAct(domain.IntentBye)}, a.Manager().State().LastSysActs)
}

func TestAgent_NoNLU(t *testing.T) {
	a := newAgent(t, agent.WithNLU(nil))
	a.StartDialogue(context.Background())
	_, err := a.ContinueDialogue(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrNoNLU)
}

func TestAgent_NoNLG(t *testing.T) {
	a := newAgent(t, agent.WithNLG(nil))
	assert.Equal(t, "welcomemsg()", a.StartDialogue(context.Background()))
}

func TestAgent_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	a := newAgent(t)
	a.StartDialogue(ctx)
	_, err := a.ContinueDialogue(ctx, "I like comedy movies")
	require.NoError(t, err)

	snap := a.Snapshot()
	assert.Equal(t, 2, snap.Turn)
	assert.Contains(t, snap.History, "USER > I like comedy movies")

	b := newAgent(t)
	b.Restore(snap)
	assert.Equal(t, a.Manager().State().ItemInFocus.Name(), b.Manager().State().ItemInFocus.Name())
	assert.Equal(t, 2, b.Turn())

	_, err = b.ContinueDialogue(ctx, "bye")
	require.NoError(t, err)
	assert.True(t, b.Terminated())
	assert.False(t, a.Terminated(), "restored agents do not share state")
}
