package runtime

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

func (e *Engine) emitStageEnter(ctx context.Context, state *domain.State, stage domain.StageID) {
	if e.hooks.OnStageEnter == nil {
		return
	}
	e.hooks.OnStageEnter(ctx, e.stageEvent(domain.EventStageEnter, state, stage))
}

func (e *Engine) emitStageLeave(ctx context.Context, state *domain.State, stage domain.StageID) {
	if e.hooks.OnStageLeave == nil {
		return
	}
	e.hooks.OnStageLeave(ctx, e.stageEvent(domain.EventStageLeave, state, stage))
}

func (e *Engine) stageEvent(t domain.EventType, state *domain.State, stage domain.StageID) *domain.StageEvent {
	return &domain.StageEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: t, SessionID: state.SessionID},
		Stage:     stage,
		Role:      state.Session.ActorRole,
	}
}

func (e *Engine) emitEffectScheduled(ctx context.Context, state *domain.State, effect domain.Effect) {
	if e.hooks.OnEffectScheduled == nil {
		return
	}
	e.hooks.OnEffectScheduled(ctx, &domain.EffectEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventEffectScheduled, SessionID: state.SessionID},
		EffectID:  effect.ID,
		Kind:      effect.Kind,
		Stage:     effect.Stage,
	})
}

func (e *Engine) emitEffectSettled(ctx context.Context, state *domain.State, effect domain.Effect, s domain.Settlement) {
	if e.hooks.OnEffectSettled == nil {
		return
	}
	now := e.now()
	e.hooks.OnEffectSettled(ctx, &domain.EffectEvent{
		EventBase: domain.EventBase{Timestamp: now, Type: domain.EventEffectSettled, SessionID: state.SessionID},
		EffectID:  effect.ID,
		Kind:      effect.Kind,
		Stage:     effect.Stage,
		Duration:  now.Sub(effect.ScheduledAt),
		Outcome:   Outcome(s),
		Err:       s.Err,
	})
}

// Outcome labels a settlement for metrics and logs.
func Outcome(s domain.Settlement) string {
	switch {
	case s.Err != nil:
		return "unreachable"
	case s.Batch != nil:
		return string(s.Batch.Classify())
	case s.Import != nil && s.Import.Clean():
		return "clean"
	case s.Import != nil:
		return "rejected"
	}
	return "unknown"
}
