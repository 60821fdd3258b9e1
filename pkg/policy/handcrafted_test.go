package policy_test

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/reel/pkg/adapters/jsondb"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy(t *testing.T, o *ontology.Ontology) *policy.Handcrafted {
	t.Helper()
	p, err := policy.NewHandcrafted(o, policy.WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	return p
}

func movieOntology() *ontology.Ontology {
	return &ontology.Ontology{
		Requestable:       []string{"director_name", "actors", "plot_keywords"},
		SystemRequestable: []string{"genres"},
	}
}

func act(intent domain.Intent, kv ...string) domain.Act {
	var items []domain.ActItem
	for i := 0; i+1 < len(kv); i += 2 {
		items = append(items, domain.Item(kv[i], kv[i+1]))
	}
	return domain.NewAct(intent, items...)
}

func assertActs(t *testing.T, want, got []domain.Act) {
	t.Helper()
	require.Len(t, got, len(want), "got %s", domain.JoinActs(got))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "act %d: want %s, got %s", i, want[i], got[i])
	}
}

func TestNewHandcrafted_RejectsNilOntology(t *testing.T) {
	_, err := policy.NewHandcrafted(nil)
	assert.Error(t, err)
}

func TestNextAction_Scenarios(t *testing.T) {
	p := newPolicy(t, movieOntology())

	t.Run("requests the only unfilled slot", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		got := p.NextAction(state, domain.NewContext([]string{"name"}))
		assertActs(t, []domain.Act{act(domain.IntentRequest, "genres", "")}, got)
	})

	t.Run("offers the item in focus", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "Animation")
		state.ItemInFocus = domain.Record{"name": "Up", "genres": "Animation"}

		got := p.NextAction(state, domain.NewContext([]string{"name"}))
		assertActs(t, []domain.Act{
			act(domain.IntentOffer, "name", "Up"),
			act(domain.IntentInform, "genres", "Animation"),
		}, got)
	})

	t.Run("no info for filled slots missing on the item", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "Animation")
		state.ItemInFocus = domain.Record{"id": "7"}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{
			act(domain.IntentOffer, "name", policy.UnknownItem),
			act(domain.IntentInform, "genres", policy.NoInfo),
		}, got)
	})

	t.Run("cannot help without an item", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "Western")
		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentCantHelp)}, got)
	})
}

func TestNextAction_OfferNullSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	data := `[{"name": "Up", "genres": "Animation", "director_name": null}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	db, err := jsondb.Load(path)
	require.NoError(t, err)
	records := db.Records()
	require.Len(t, records, 1)

	o := &ontology.Ontology{
		Requestable:       []string{"director_name"},
		SystemRequestable: []string{"director_name"},
	}
	p := newPolicy(t, o)
	state := domain.NewState([]string{"director_name"})
	state.Fill("director_name", "Pete Docter")
	state.ItemInFocus = records[0]

	got := p.NextAction(state, domain.NewContext(nil))
	assertActs(t, []domain.Act{
		act(domain.IntentOffer, "name", "Up"),
		act(domain.IntentInform, "director_name", policy.NoInfo),
	}, got)
}

func TestNextAction_Terminal(t *testing.T) {
	p := newPolicy(t, movieOntology())
	state := domain.NewState(nil)
	state.Terminal = true
	dctx := domain.NewContext(nil)
	dctx.RequestFeedback = true

	assertActs(t, []domain.Act{act(domain.IntentBye)}, p.NextAction(state, dctx))
}

func TestNextAction_Feedback(t *testing.T) {
	p := newPolicy(t, movieOntology())

	t.Run("asks for feedback", func(t *testing.T) {
		dctx := domain.NewContext([]string{"name"})
		dctx.RequestFeedback = true
		dctx.FeedbackSlot = "Up"

		got := p.NextAction(domain.NewState(nil), dctx)
		assertActs(t, []domain.Act{act(domain.IntentFeedback, "name", "Up")}, got)
	})

	t.Run("acknowledges and keeps offering", func(t *testing.T) {
		dctx := domain.NewContext([]string{"name"})
		dctx.FeedbackGiven = true
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "Comedy")
		state.ItemInFocus = domain.Record{"name": "Heat", "genres": "Crime"}
		// Requests are ignored on the acknowledgement turn.
		state.RequestedSlot = "actors"
		state.SystemMadeOffer = true

		got := p.NextAction(state, dctx)
		assertActs(t, []domain.Act{
			act(domain.IntentAckFeedback),
			act(domain.IntentOffer, "name", "Heat"),
			act(domain.IntentInform, "genres", "Crime"),
		}, got)
		assert.False(t, dctx.FeedbackGiven)
		assert.Equal(t, "actors", state.RequestedSlot)
	})
}

func TestNextAction_RequestedSlot(t *testing.T) {
	p := newPolicy(t, movieOntology())

	t.Run("answers from the item", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.ItemInFocus = domain.Record{"name": "Up", "director_name": "Pete Docter"}
		state.SystemMadeOffer = true
		state.RequestedSlot = "director_name"

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentInform, "director_name", "Pete Docter")}, got)
		assert.Empty(t, state.RequestedSlot)
		assert.Equal(t, []string{"director_name"}, state.RequestedSlotFilled)
	})

	t.Run("not available", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.ItemInFocus = domain.Record{"name": "Up"}
		state.SystemMadeOffer = true
		state.RequestedSlot = "actors"

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentInform, "actors", policy.NotAvailable)}, got)
		assert.Empty(t, state.RequestedSlotFilled)
	})

	t.Run("without an offer falls through", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.RequestedSlot = "actors"

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentRequest, "genres", "")}, got)
	})
}

func TestNextAction_UserActs(t *testing.T) {
	p := newPolicy(t, movieOntology())

	t.Run("help is echoed", func(t *testing.T) {
		state := domain.NewState(nil)
		state.UserActs = []domain.Act{act(domain.IntentHelp)}
		assertActs(t, []domain.Act{act(domain.IntentHelp)}, p.NextAction(state, domain.NewContext(nil)))
	})

	t.Run("canthelp after a request repeats its params", func(t *testing.T) {
		state := domain.NewState(nil)
		userAct := act(domain.IntentCantHelp, "genres", "")
		state.UserActs = []domain.Act{userAct}
		state.LastSysActs = []domain.Act{act(domain.IntentCantHelp), act(domain.IntentRequest, "genres", "")}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{userAct, act(domain.IntentMoreInfo, "genres", "")}, got)
		assert.Len(t, state.LastSysActs, 2, "last system acts are not modified")
	})

	t.Run("canthelp lists unanswered requestables", func(t *testing.T) {
		state := domain.NewState(nil)
		state.UserActs = []domain.Act{act(domain.IntentCantHelp)}
		state.LastSysActs = []domain.Act{act(domain.IntentOffer, "name", "Up")}
		state.RequestedSlotFilled = []string{"actors"}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{
			act(domain.IntentCantHelp),
			act(domain.IntentMoreInfo, "director_name plot_keywords", ""),
		}, got)
	})

	t.Run("standalone moreinfo", func(t *testing.T) {
		state := domain.NewState(nil)
		state.UserActs = []domain.Act{act(domain.IntentMoreInfo)}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentMoreInfo, "director_name actors plot_keywords", "")}, got)
	})

	t.Run("moreinfo with other acts is ignored", func(t *testing.T) {
		state := domain.NewState(nil)
		state.UserActs = []domain.Act{act(domain.IntentMoreInfo), act(domain.IntentInform, "genres", "Drama")}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentRequest, "genres", "")}, got)
	})
}

func TestNextAction_NeverRequestsFilledSlot(t *testing.T) {
	o := &ontology.Ontology{SystemRequestable: []string{"genres", "actors", "director_name", "title_year"}}
	for seed := uint64(0); seed < 50; seed++ {
		p, err := policy.NewHandcrafted(o, policy.WithRand(rand.New(rand.NewPCG(seed, seed))))
		require.NoError(t, err)

		state := domain.NewState(o.SystemRequestable)
		state.Fill("genres", "Drama")
		state.Fill("director_name", "Nolan")
		state.Fill("title_year", "2010")

		got := p.NextAction(state, domain.NewContext(nil))
		require.Len(t, got, 1)
		assert.Equal(t, domain.IntentRequest, got[0].Intent)
		assert.Equal(t, "actors", got[0].Params[0].Slot, "seed %d", seed)
	}
}

func TestNextAction_Entropy(t *testing.T) {
	o := &ontology.Ontology{SystemRequestable: []string{"genres", "actors", "title_year"}}
	high, low := 2.0, 0.5

	t.Run("picks the max entropy slot", func(t *testing.T) {
		p := newPolicy(t, o)
		state := domain.NewState(o.SystemRequestable)
		state.SlotEntropies = map[string]*float64{"genres": &low, "actors": &high, "title_year": nil}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentRequest, "actors", "")}, got)
	})

	t.Run("zero entropy leaves the slot empty", func(t *testing.T) {
		p := newPolicy(t, o)
		zero := 0.0
		state := domain.NewState(o.SystemRequestable)
		state.SlotEntropies = map[string]*float64{"genres": &zero}
		state.ItemInFocus = domain.Record{"name": "Up"}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentOffer, "name", "Up")}, got)
	})

	t.Run("placeholders fall back to random choice", func(t *testing.T) {
		p := newPolicy(t, &ontology.Ontology{SystemRequestable: []string{"genres"}})
		state := domain.NewState([]string{"genres"})
		state.SlotEntropies = map[string]*float64{"genres": nil}

		got := p.NextAction(state, domain.NewContext(nil))
		assertActs(t, []domain.Act{act(domain.IntentRequest, "genres", "")}, got)
	})
}
