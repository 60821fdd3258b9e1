package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{`[\w.]+@[\w.]+`, `\d{3}-\d{4}`})
	require.NoError(t, err)
	store := mw(underlying)

	snap := newSnapshot("pii")
	require.NoError(t, store.Save(ctx, "pii", snap))

	assert.Equal(t, "my mail is jane@example.com", snap.History[1], "caller snapshot must not change")

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, []string{"I like Comedy movies", "my mail is ***"}, stored.History)
	assert.Equal(t, "loved it, call me at ***", stored.Context.Reviews["Heat"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{`\d{3}-\d{4}`})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	require.NoError(t, store.Save(ctx, "c", newSnapshot("c")))

	raw, err := underlying.Load(ctx, "c")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "loved it, call me at ***", loaded.Context.Reviews["Heat"])
}
