package http_test

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	reelhttp "github.com/aretw0/reel/pkg/adapters/http"
	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/dialogue"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/nlg"
	"github.com/aretw0/reel/pkg/nlu"
	"github.com/aretw0/reel/pkg/observability"
	"github.com/aretw0/reel/pkg/ontology"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/aretw0/reel/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	o := ontology.Default()
	db := memory.NewDatabase(ports.ContractMovies)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	factory := func() (*agent.Agent, error) {
		dm, err := dialogue.NewManager(dialogue.Config{
			Settings: map[string]any{},
			Ontology: o,
			Database: db,
			Domain:   dialogue.DomainMovie,
		}, dialogue.WithRand(rand.New(rand.NewPCG(1, 2))), dialogue.WithHooks(metrics.Hooks()))
		if err != nil {
			return nil, err
		}
		return agent.New(dm,
			agent.WithNLU(nlu.NewActParser(o)),
			agent.WithNLG(nlg.NewMovieNLG()),
			agent.WithHooks(metrics.Hooks()),
		), nil
	}
	srv := reelhttp.NewServer(session.NewManager(memory.NewStore()), factory, reelhttp.WithGatherer(reg))
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestServer_Dialogue(t *testing.T) {
	h := newServer(t)

	w := do(t, h, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[reelhttp.MessageResponse](t, w)
	require.NotEmpty(t, created.ID)
	assert.Contains(t, created.Text, "JARVIS")

	w = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/messages", reelhttp.MessageRequest{Text: "I like comedy movies"})
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode[reelhttp.MessageResponse](t, w)
	assert.Contains(t, reply.Text, "Have you watched")
	assert.False(t, reply.Terminal)

	w = do(t, h, http.MethodGet, "/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[domain.Snapshot](t, w)
	assert.Equal(t, created.ID, snap.SessionID)
	assert.Equal(t, "Comedy", snap.State.SlotsFilled["genres"])
	assert.Contains(t, snap.History, "USER > I like comedy movies")

	w = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/messages", reelhttp.MessageRequest{Text: "bye"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[reelhttp.MessageResponse](t, w).Terminal)

	w = do(t, h, http.MethodGet, "/sessions/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{created.ID}, decode[[]string](t, w))

	w = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reel_turns_total 2")
	assert.Contains(t, w.Body.String(), `reel_dialogues_total{outcome="completed"} 1`)

	w = do(t, h, http.MethodDelete, "/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Errors(t *testing.T) {
	h := newServer(t)

	t.Run("unknown session", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/sessions/missing/messages", reelhttp.MessageRequest{Text: "hi"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sessions/x/messages", strings.NewReader("{"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("oversized input", func(t *testing.T) {
		long := strings.Repeat("a", reelhttp.DefaultMaxInputSize+1)
		w := do(t, h, http.MethodPost, "/sessions/x/messages", reelhttp.MessageRequest{Text: long})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "maximum allowed size")
	})
	t.Run("health", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})
}

func TestSanitizeInput(t *testing.T) {
	clean, err := reelhttp.SanitizeInput("hi\x1b[31m there\n", 0)
	require.NoError(t, err)
	assert.Equal(t, "hi[31m there\n", clean)

	_, err = reelhttp.SanitizeInput("abc", 2)
	assert.ErrorIs(t, err, reelhttp.ErrInputTooLarge)

	_, err = reelhttp.SanitizeInput("\xff", 0)
	assert.ErrorIs(t, err, reelhttp.ErrInvalidUTF8)
}
