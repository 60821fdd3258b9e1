package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDatabase_Contract(t *testing.T) {
	ports.RunDatabaseContract(t, memory.NewDatabase(ports.ContractMovies))
}

func TestMatches(t *testing.T) {
	r := domain.Record{"genres": "Action|Drama", "actors": "Al Pacino"}
	state := domain.NewState([]string{"genres", "actors"})

	assert.True(t, memory.Matches(r, state), "nothing filled")

	state.Fill("genres", "drama")
	assert.True(t, memory.Matches(r, state))

	state.Fill("actors", "Al")
	assert.False(t, memory.Matches(r, state), "no partial names")
}

func TestMemoryDatabase_Cancelled(t *testing.T) {
	db := memory.NewDatabase(ports.ContractMovies)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.Lookup(ctx, domain.NewState(nil))
	require.ErrorIs(t, err, context.Canceled)
}
