package ports

import (
	"context"

	"github.com/aretw0/reel/pkg/domain"
)

// Database finds the records matching the filled slots of a state.
type Database interface {
	// Lookup returns the matching records, or an empty slice when none match.
	Lookup(ctx context.Context, state *domain.State) ([]domain.Record, error)
}
