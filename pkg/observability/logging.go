package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/reel/pkg/domain"
)

// LogHooks returns lifecycle hooks writing one record per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDialogueStart: func(ctx context.Context, e *domain.DialogueEvent) {
			logger.InfoContext(ctx, "dialogue_start", "dialogue", e.Dialogue)
		},
		OnDialogueEnd: func(ctx context.Context, e *domain.DialogueEvent) {
			logger.InfoContext(ctx, "dialogue_end",
				"dialogue", e.Dialogue,
				"turns", e.Turns,
				"outcome", outcome(e.Terminal),
			)
		},
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn",
				"dialogue", e.Dialogue,
				"turn", e.Turn,
				"user", domain.JoinActs(e.UserActs),
				"system", domain.JoinActs(e.SysActs),
				"forced", e.Forced,
			)
		},
		OnLookup: func(ctx context.Context, e *domain.LookupEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "db_lookup", "dialogue", e.Dialogue, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "db_lookup", "dialogue", e.Dialogue, "results", e.Results, "cached", e.Cached)
		},
	}
}
