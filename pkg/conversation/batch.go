package conversation

import (
	"context"
	"fmt"

	"github.com/aretw0/reel/pkg/simulation"
	"golang.org/x/sync/errgroup"
)

// Factory builds the manager of the i-th simulation. Managers are not
// shared between simulations.
type Factory func(i int) (*Manager, error)

// BatchConfig describes a batch of simulations.
type BatchConfig struct {
	Dialogues   int
	Parallelism int
	Kind        simulation.AgendaKind
	Persona     bool
}

// RunBatch runs cfg.Dialogues simulations, at most cfg.Parallelism at a
// time. Results keep the order of their index. The first failure cancels
// the simulations still running.
func RunBatch(ctx context.Context, cfg BatchConfig, factory Factory) ([]*Result, error) {
	results := make([]*Result, cfg.Dialogues)
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Parallelism > 0 {
		g.SetLimit(cfg.Parallelism)
	}
	for i := range cfg.Dialogues {
		g.Go(func() error {
			m, err := factory(i)
			if err != nil {
				return fmt.Errorf("failed to build simulation %d: %w", i, err)
			}
			res, err := m.Run(ctx, cfg.Kind, cfg.Persona)
			if err != nil {
				return fmt.Errorf("simulation %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
