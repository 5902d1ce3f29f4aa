package observability

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the onboarding collectors.
type Metrics struct {
	StageEnters     *prometheus.CounterVec
	EffectsInFlight *prometheus.GaugeVec
	EffectDuration  *prometheus.HistogramVec
	EffectOutcomes  *prometheus.CounterVec
	StageLeaves           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_stage_enters_total",
				Help: "Total number of times a stage was entered",
			},
			[]string{"stage", "role"},
		),
		EffectsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "onboard_effects_in_flight",
				Help: "Side effects scheduled and not yet settled",
			},
			[]string{"kind"},
		),
		EffectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboard_effect_duration_seconds",
				Help:    "Time between scheduling and settling a side effect",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		EffectOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_effect_outcomes_total",
				Help: "Settled side effects by outcome",
			},
			[]string{"kind", "outcome"},
		),
		StageLeaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_stage_leaves_total",
				Help: "Total number of times a stage was left",
			},
			[]string{"stage"},
		),
	}
	reg.MustRegister(m.StageEnters, m.EffectsInFlight, m.EffectDuration, m.EffectOutcomes, m.StageLeaves)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.StageEnters.WithLabelValues(string(e.Stage), string(e.Role)).Inc()
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.StageLeaves.WithLabelValues(string(e.Stage)).Inc()
		},
		OnEffectScheduled: func(_ context.Context, e *domain.EffectEvent) {
			m.EffectsInFlight.WithLabelValues(string(e.Kind)).Inc()
		},
		OnEffectSettled: func(_ context.Context, e *domain.EffectEvent) {
			kind := string(e.Kind)
			m.EffectsInFlight.WithLabelValues(kind).Dec()
			m.EffectDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
			m.EffectOutcomes.WithLabelValues(kind, e.Outcome).Inc()
		},
	}
}
