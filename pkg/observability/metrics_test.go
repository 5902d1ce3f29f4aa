package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStageEnter(ctx, &domain.StageEvent{Stage: domain.StageTeam, Role: domain.RoleOrgAdmin})
	hooks.OnStageEnter(ctx, &domain.StageEvent{Stage: domain.StageTeam, Role: domain.RoleOrgAdmin})
	hooks.OnEffectScheduled(ctx, &domain.EffectEvent{Kind: domain.EffectSendInvitations})
	hooks.OnEffectSettled(ctx, &domain.EffectEvent{Kind: domain.EffectSendInvitations, Outcome: "partial", Duration: time.Second})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageEnters.WithLabelValues("team", "org_admin")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EffectsInFlight.WithLabelValues("send_invitations")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EffectOutcomes.WithLabelValues("send_invitations", "partial")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EffectDuration))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hooks := observability.LogHooks(logger).Merge(domain.LifecycleHooks{})

	hooks.OnEffectSettled(context.Background(), &domain.EffectEvent{
		EventBase: domain.EventBase{SessionID: "s1"},
		Kind:      domain.EffectCommitImport,
		Outcome:   "unreachable",
		Err:       errors.New("dial tcp: refused"),
	})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "session_id=s1")
	assert.Contains(t, out, "outcome=unreachable")
}
