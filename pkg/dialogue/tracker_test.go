package dialogue_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/reel/pkg/dialogue"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func act(intent domain.Intent, kv ...string) domain.Act {
	var items []domain.ActItem
	for i := 0; i+1 < len(kv); i += 2 {
		items = append(items, domain.Item(kv[i], kv[i+1]))
	}
	return domain.NewAct(intent, items...)
}

func TestTracker_UpdateState(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	tr.Initialize(nil)

	require.NoError(t, tr.UpdateState([]domain.Act{
		act(domain.IntentInform, "genres", "Comedy"),
		act(domain.IntentRequest, "actors", ""),
	}))

	s := tr.State()
	assert.Equal(t, "Comedy", s.SlotsFilled["genres"])
	assert.Equal(t, "actors", s.RequestedSlot)
	assert.Equal(t, 1, s.Turn)
	assert.Len(t, s.UserActs, 2)
	assert.Equal(t, []string{"name"}, tr.ContextSlots())
}

func TestTracker_IgnoresUnknownSlots(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentInform, "language", "French")}))
	assert.Empty(t, tr.State().FilledSlots())
}

func TestTracker_FeedbackFlow(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	tr.Initialize(nil)

	up := domain.Record{"name": "Up", "genres": "Animation"}
	tr.UpdateStateDB(nil, []domain.Record{up}, nil)
	tr.UpdateStateSysAct([]domain.Act{act(domain.IntentOffer, "name", "Up")})
	require.NoError(t, tr.Context().AddOffer("name", "Up"))
	assert.True(t, tr.State().SystemMadeOffer)

	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentAffirm)}))
	assert.True(t, tr.Context().RequestFeedback)
	assert.Equal(t, "Up", tr.Context().FeedbackSlot)

	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentFeedback, "name", "like")}))
	c := tr.Context()
	assert.True(t, c.FeedbackGiven)
	assert.False(t, c.RequestFeedback)
	assert.Equal(t, "like", c.Reviews["Up"])
	fb, err := c.GetFeedback("name", "Up")
	require.NoError(t, err)
	assert.Equal(t, "like", fb)
}

func TestTracker_NegateClearsFeedbackRequest(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	tr.Context().RequestFeedback = true
	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentNegate)}))
	assert.False(t, tr.Context().RequestFeedback)
}

func TestTracker_AffirmWithoutOffer(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentAffirm)}))
	assert.False(t, tr.Context().RequestFeedback)
}

func TestTracker_Bye(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentBye)}))
	assert.True(t, tr.State().IsTerminal())
}

func TestTracker_UpdateStateDB_SkipsRecommended(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	require.NoError(t, tr.Context().AddOffer("name", "Up"))

	results := []domain.Record{{"name": "Up"}, {"name": "Heat"}}
	offer := []domain.Act{act(domain.IntentOffer)}
	tr.UpdateStateDB(offer, results, nil)

	s := tr.State()
	assert.Equal(t, "Heat", s.ItemInFocus.Name())
	assert.InDelta(t, 0.2, s.DBMatchesRatio, 1e-9)
	assert.False(t, s.SystemMadeOffer)

	tr.State().SystemMadeOffer = true
	tr.UpdateStateDB(nil, results, nil)
	assert.Equal(t, "Heat", tr.State().ItemInFocus.Name(), "focus kept without an offer request")
	assert.True(t, tr.State().SystemMadeOffer)

	require.NoError(t, tr.Context().AddOffer("name", "Heat"))
	tr.UpdateStateDB(offer, results, nil)
	assert.Equal(t, "Up", tr.State().ItemInFocus.Name(), "falls back to the first result")
}

func TestTracker_ContextSlot(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, []string{"title_year", "name"})
	require.NoError(t, tr.Context().AddOffer("title_year", "2009"))

	results := []domain.Record{
		{"name": "Up", "title_year": "2009"},
		{"name": "Heat", "title_year": "1995"},
	}
	tr.UpdateStateDB([]domain.Act{act(domain.IntentOffer)}, results, nil)
	assert.Equal(t, "Heat", tr.State().ItemInFocus.Name())

	tr.State().SystemMadeOffer = true
	require.NoError(t, tr.UpdateState([]domain.Act{act(domain.IntentFeedback, "name", "like")}))

	c := tr.Context()
	fb, err := c.GetFeedback("title_year", "1995")
	require.NoError(t, err)
	assert.Equal(t, "like", fb)
	assert.Equal(t, "like", c.Reviews["Heat"])
	recs, err := c.PreviousRecommendations("name")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTracker_UpdateStateDB_LogsUnknownSlot(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tr := dialogue.NewTracker([]string{"genres"}, nil, dialogue.WithTrackerLogger(logger))
	tr.Restore(tr.State(), domain.NewContext([]string{"title_year"}))

	tr.UpdateStateDB([]domain.Act{act(domain.IntentOffer)}, []domain.Record{{"name": "Up"}}, nil)
	assert.Equal(t, "Up", tr.State().ItemInFocus.Name())
	assert.Contains(t, buf.String(), "failed to read previous recommendations")
}

func TestTracker_UpdateStateSysAct(t *testing.T) {
	tr := dialogue.NewTracker([]string{"genres"}, nil)
	tr.Context().RequestFeedback = true

	tr.UpdateStateSysAct([]domain.Act{act(domain.IntentFeedback, "name", "Up")})
	assert.False(t, tr.Context().RequestFeedback)
	assert.Len(t, tr.State().LastSysActs, 1)

	tr.UpdateStateSysAct([]domain.Act{act(domain.IntentBye)})
	assert.True(t, tr.State().IsTerminal())
}
