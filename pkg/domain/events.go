package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter      EventType = "stage_enter"
	EventStageLeave      EventType = "stage_leave"
	EventEffectScheduled EventType = "effect_scheduled"
	EventEffectSettled   EventType = "effect_settled"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StageEvent represents entry into or exit from a stage.
type StageEvent struct {
	EventBase
	Stage StageID `json:"stage"`
	Role  Role    `json:"role"`
}

// EffectEvent represents a side effect being scheduled or settled.
type EffectEvent struct {
	EventBase
	EffectID string        `json:"effect_id"`
	Kind     EffectKind    `json:"kind"`
	Stage    StageID       `json:"stage"`
	Duration time.Duration `json:"duration,omitempty"`
	Outcome  string        `json:"outcome,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStageEnter      func(context.Context, *StageEvent)
	OnStageLeave      func(context.Context, *StageEvent)
	OnEffectScheduled func(context.Context, *EffectEvent)
	OnEffectSettled   func(context.Context, *EffectEvent)
}

// Merge returns hooks that invoke h and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageEnter:      chain(h.OnStageEnter, other.OnStageEnter),
		OnStageLeave:      chain(h.OnStageLeave, other.OnStageLeave),
		OnEffectScheduled: chain(h.OnEffectScheduled, other.OnEffectScheduled),
		OnEffectSettled:   chain(h.OnEffectSettled, other.OnEffectSettled),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
