package ports

import (
	"context"

	"github.com/aretw0/reel/pkg/domain"
)

// Policy decides what the system does next.
type Policy interface {
	NextAction(state *domain.State, dctx *domain.Context) []domain.Act
	Initialize()
	Restart()
}

// NLU turns a user utterance into dialogue acts.
type NLU interface {
	ProcessInput(ctx context.Context, utterance string, state *domain.State, dctx *domain.Context) ([]domain.Act, error)
}

// NLG turns system acts into an utterance.
type NLG interface {
	Render(acts []domain.Act) string
}

// IntentAnnotator labels a system utterance with a corpus intent.
type IntentAnnotator interface {
	Annotate(utterance string) string
}

// Entity is a movie mention found in a system utterance.
type Entity struct {
	Text        string   `json:"text"`
	SurfaceForm string   `json:"surface_form"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
}

// EntityLinker resolves the movies mentioned in a system utterance.
type EntityLinker interface {
	LinkEntities(text string) ([]Entity, error)
}

// Renderer turns a user intent and its arguments into text.
type Renderer interface {
	Render(intent string, args map[string]string) (string, error)
}
