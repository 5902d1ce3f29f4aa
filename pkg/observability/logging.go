package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/onboard/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every event to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_enter", "session_id", e.SessionID, "stage", e.Stage, "role", e.Role)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_leave", "session_id", e.SessionID, "stage", e.Stage)
		},
		OnEffectScheduled: func(ctx context.Context, e *domain.EffectEvent) {
			logger.InfoContext(ctx, "effect_scheduled", "session_id", e.SessionID, "effect_id", e.EffectID, "kind", e.Kind, "stage", e.Stage)
		},
		OnEffectSettled: func(ctx context.Context, e *domain.EffectEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"effect_id", e.EffectID,
				"kind", e.Kind,
				"stage", e.Stage,
				"outcome", e.Outcome,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "effect_settled", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "effect_settled", attrs...)
		},
	}
}
