package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		state := domain.NewState([]string{"genres"})
		return &domain.Snapshot{
			SessionID: id,
			State:     state,
			Context:   domain.NewContext([]string{"name"}),
			UpdatedAt: time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(sessionID)
		snap.State.Fill("genres", "Comedy")
		snap.State.ItemInFocus = domain.Record{"name": "Up", "genres": "Animation"}
		snap.State.Turn = 3
		snap.State.LastSysActs = []domain.Act{domain.NewAct(domain.IntentOffer, domain.Item("name", "Up"))}
		require.NoError(t, snap.Context.AddOffer("name", "Up"))
		snap.DialogueCounter = 2

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "Comedy", loaded.State.SlotsFilled["genres"])
		assert.Equal(t, "Up", loaded.State.ItemInFocus.Name())
		assert.Equal(t, 3, loaded.State.Turn)
		assert.Equal(t, 2, loaded.DialogueCounter)
		require.Len(t, loaded.State.LastSysActs, 1)
		assert.True(t, loaded.State.LastSysActs[0].Equal(snap.State.LastSysActs[0]))

		prev, err := loaded.Context.PreviousRecommendations("name")
		require.NoError(t, err)
		assert.Equal(t, []string{"Up"}, prev)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSnapshot(id1))
		_ = store.Save(ctx, id2, newSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// ContractMovies is the fixture every Database implementation is seeded with
// before running RunDatabaseContract.
var ContractMovies = []domain.Record{
	{"id": "1", "name": "Up", "genres": "Animation, Adventure, Comedy", "director_name": "Pete Docter", "actors": "Ed Asner", "title_year": "2009", "duration": "96", "imdb_score": "8.3", "plot_keywords": "balloon"},
	{"id": "2", "name": "Toy Story", "genres": "Animation, Comedy", "director_name": "John Lasseter", "actors": "Tom Hanks", "title_year": "1995", "duration": "81", "imdb_score": "8.3", "plot_keywords": "toy"},
	{"id": "3", "name": "Heat", "genres": "Action, Crime, Drama", "director_name": "Michael Mann", "actors": "Al Pacino", "title_year": "1995", "duration": "170", "imdb_score": "8.2", "plot_keywords": "robbery"},
}

// RunDatabaseContract verifies the lookup semantics of a Database seeded with ContractMovies.
func RunDatabaseContract(t *testing.T, db Database) {
	ctx := context.Background()

	names := func(records []domain.Record) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.Name()
		}
		return out
	}

	t.Run("No Filled Slots Matches All", func(t *testing.T) {
		got, err := db.Lookup(ctx, domain.NewState([]string{"genres"}))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Up", "Toy Story", "Heat"}, names(got))
	})

	t.Run("Filled Slot Filters", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "Animation")
		got, err := db.Lookup(ctx, state)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Up", "Toy Story"}, names(got))
	})

	t.Run("Case Insensitive", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "crime")
		got, err := db.Lookup(ctx, state)
		require.NoError(t, err)
		assert.Equal(t, []string{"Heat"}, names(got))
	})

	t.Run("Records Carry Fields", func(t *testing.T) {
		state := domain.NewState([]string{"genres", "actors"})
		state.Fill("actors", "Tom Hanks")
		got, err := db.Lookup(ctx, state)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1995", got[0]["title_year"])
		assert.Equal(t, "John Lasseter", got[0]["director_name"])
	})

	t.Run("No Match", func(t *testing.T) {
		state := domain.NewState([]string{"genres"})
		state.Fill("genres", "Western")
		got, err := db.Lookup(ctx, state)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
