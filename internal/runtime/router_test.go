package runtime_test

import (
	"testing"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_ExitsFromAnyStage(t *testing.T) {
	e := newTestEngine()
	for _, stage := range e.Stages(platformAdmin) {
		t.Run(string(stage.ID), func(t *testing.T) {
			state := start(t, e, platformAdmin)
			state.CurrentStage = stage.ID

			step := handle(t, e, state, "manual")

			assert.True(t, step.Exit)
			assert.False(t, step.Transitioned())
			assert.Equal(t, domain.StatusExited, step.State.Status)
			assert.Equal(t, stage.ID, step.State.CurrentStage)
		})
	}
}

func TestUnrecognized_NoStateChange(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"stale skip", "skip_parts"},
		{"confirm without upload", "confirm_team"},
		{"complete before review", "complete"},
		{"retry without failures", "retry_failed"},
		{"garbage", "do_a_barrel_roll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			state := start(t, e, orgAdmin)

			step := handle(t, e, state, tt.token)

			assert.Equal(t, withoutLog(state), withoutLog(step.State))
			assert.Nil(t, step.Effect)
			require.Len(t, step.Turns, 2)
			assert.Equal(t, domain.SpeakerUser, step.Turns[0].Speaker)
			assert.Equal(t, "I'm not sure how to help with that.", step.Turns[1].Body)
		})
	}
}

func TestFreeTextOnImportStage_IsUnrecognized(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)
	state = handle(t, e, state, "skip_team").State

	step := say(t, e, state, "hello?")

	assert.Equal(t, domain.StageEquipment, step.State.CurrentStage)
	assert.Equal(t, "I'm not sure how to help with that.", lastTurn(step.State).Body)
}

func TestInviteTeam_Instructions(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)

	step := handle(t, e, state, "invite_team")

	assert.False(t, step.Transitioned())
	assert.Contains(t, lastTurn(step.State).Body, "one team member per line")
	assert.Equal(t, "Invite team members", step.Turns[0].Body, "user turn shows the choice label")
}

func TestTeamText_SchedulesInvitations(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)

	step := say(t, e, state, "Alice, alice@x.com, admin\nBob, bob@x.com")

	require.NotNil(t, step.Effect)
	assert.Equal(t, domain.EffectSendInvitations, step.Effect.Kind)
	assert.Equal(t, []domain.TeamMemberDraft{
		{Name: "Alice", Email: "alice@x.com", Role: "admin"},
		{Name: "Bob", Email: "bob@x.com", Role: "manager"},
	}, step.Effect.Recipients)
	assert.True(t, step.State.InFlight(domain.StageTeam))
	assert.Equal(t, domain.StageTeam, step.State.CurrentStage, "waits for the batch to settle")
}

func TestTeamText_PendingGuard(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)
	state = say(t, e, state, "Alice, alice@x.com").State
	pending := state.Pending[domain.StageTeam]

	step := say(t, e, state, "Alice, alice@x.com")

	assert.Nil(t, step.Effect, "double submission must not schedule a second batch")
	assert.Equal(t, pending, step.State.Pending[domain.StageTeam])
	assert.Contains(t, lastTurn(step.State).Body, "still working")
}

func TestTeamText_NoDrafts(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)

	step := say(t, e, state, "\n \n")

	assert.Nil(t, step.Effect)
	assert.Contains(t, lastTurn(step.State).Body, "couldn't find any team members")
}

func TestUpload_AsksForFile(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)
	state = handle(t, e, state, "skip_team").State

	step := handle(t, e, state, "upload_equipment")

	assert.Nil(t, step.Effect)
	assert.False(t, step.Transitioned())
	assert.Equal(t, "Please provide a CSV file for this step.", lastTurn(step.State).Body)
}

func TestComplete_SummarizesCollectedStages(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)
	state.StageData[domain.StageTeam] = map[string]any{"invited": 3}
	state.StageData[domain.StageParts] = map[string]any{"imported_rows": 10}
	state.StageData[domain.StageEngineers] = map[string]any{}
	state.CurrentStage = domain.StageReview

	step := handle(t, e, state, "complete")

	assert.Equal(t, domain.StatusCompleted, step.State.Status)
	assert.Equal(t, "Setup complete! You added: Team, Parts.", lastTurn(step.State).Body)
	assert.Equal(t, 1.0, e.Progress(step.State))

	after := handle(t, e, step.State, "skip_review")
	assert.Equal(t, domain.StatusCompleted, after.State.Status)
	assert.Contains(t, lastTurn(after.State).Body, "already finished")
}

func TestSkipReview_IsUnrecognized(t *testing.T) {
	e := newTestEngine()
	state := start(t, e, orgAdmin)
	state.CurrentStage = domain.StageReview

	step := handle(t, e, state, "skip_review")

	assert.Equal(t, domain.StageReview, step.State.CurrentStage)
	assert.Equal(t, domain.StatusActive, step.State.Status)
}
