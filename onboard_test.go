package onboard_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/catalog"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orgAdmin = domain.SessionContext{
	ActorRole:       domain.RoleOrgAdmin,
	OrganizationID:  "org-1",
	UserID:          "user-7",
	IsAuthenticated: true,
	AuthToken:       "token",
}

// fakeGateway records calls and fails invitations for emails listed in failing.
type fakeGateway struct {
	mu      sync.Mutex
	failing map[string]string
	summary domain.ImportSummary
	imports []domain.ImportRequest
	invited [][]domain.TeamMemberDraft

	// release, when set, holds every call until closed or cancelled.
	release chan struct{}
}

func (g *fakeGateway) wait(ctx context.Context) error {
	if g.release == nil {
		return nil
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *fakeGateway) SendInvitations(ctx context.Context, sc domain.SessionContext, recipients []domain.TeamMemberDraft) (domain.BatchResult, error) {
	if err := g.wait(ctx); err != nil {
		return domain.BatchResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invited = append(g.invited, recipients)

	res := domain.BatchResult{Attempted: len(recipients)}
	for _, r := range recipients {
		if detail, ok := g.failing[r.Email]; ok {
			res.Failed = append(res.Failed, domain.InvitationOutcome{Recipient: r, ErrorDetail: detail})
			continue
		}
		res.Succeeded++
	}
	return res, nil
}

func (g *fakeGateway) Import(ctx context.Context, req domain.ImportRequest) (domain.ImportSummary, error) {
	if err := g.wait(ctx); err != nil {
		return domain.ImportSummary{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.imports = append(g.imports, req)
	return g.summary, nil
}

func lastSystemTurn(t *testing.T, view *domain.SessionView) domain.Turn {
	t.Helper()
	for i := len(view.Turns) - 1; i >= 0; i-- {
		if view.Turns[i].Speaker == domain.SpeakerSystem {
			return view.Turns[i]
		}
	}
	t.Fatal("no system turn")
	return domain.Turn{}
}

func containsBody(view *domain.SessionView, fragment string) bool {
	for _, turn := range view.Turns {
		if strings.Contains(turn.Body, fragment) {
			return true
		}
	}
	return false
}

func TestEngine_StartFiltersStagesByRole(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()

	view, err := eng.Start(context.Background(), "s1", orgAdmin)
	require.NoError(t, err)

	assert.Equal(t, domain.StageTeam, view.CurrentStage)
	assert.Equal(t, domain.StatusActive, view.Status)
	for _, stage := range view.Stages {
		assert.NotEqual(t, domain.StageManufacturer, stage.ID)
	}
	require.Len(t, view.Turns, 2)
	assert.Equal(t, domain.TurnChoicePrompt, view.Turns[1].Kind)
}

func TestEngine_StartResumesExistingSession(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	_, err = eng.Input(ctx, "s1", "skip_team", "")
	require.NoError(t, err)

	view, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.StageEquipment, view.CurrentStage)
}

func TestEngine_StartRejectsAnotherActor(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)

	intruder := orgAdmin
	intruder.OrganizationID = "org-2"
	intruder.AuthToken = "other-token"
	_, err = eng.Start(ctx, "s1", intruder)
	assert.ErrorIs(t, err, domain.ErrSessionConflict)

	other := orgAdmin
	other.UserID = "user-8"
	_, err = eng.Start(ctx, "s1", other)
	assert.ErrorIs(t, err, domain.ErrSessionConflict)

	rotated := orgAdmin
	rotated.AuthToken = "refreshed"
	_, err = eng.Start(ctx, "s1", rotated)
	assert.NoError(t, err)
}

func TestEngine_InputParsesCustomCatalogTokens(t *testing.T) {
	billing := domain.StageID("billing")
	cat, err := catalog.New(
		domain.Stage{
			ID:      billing,
			Label:   "Billing",
			Order:   1,
			Prompt:  "Add a payment method.",
			Choices: []domain.Choice{domain.StageAction(domain.ActionSkip, billing).Choice("Skip billing")},
		},
		domain.Stage{ID: domain.StageReview, Label: "Review", Order: 2, Prompt: "All set."},
	)
	require.NoError(t, err)
	eng := onboard.New(onboard.WithCatalog(cat))
	defer eng.Close()
	ctx := context.Background()

	_, err = eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)

	view, err := eng.Input(ctx, "s1", "skip_billing", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StageReview, view.CurrentStage)
	assert.False(t, containsBody(view, "not sure how to help"))
}

func TestEngine_StartGeneratesSessionID(t *testing.T) {
	eng := onboard.New(onboard.WithIDGenerator(func() string { return "generated" }))
	defer eng.Close()

	view, err := eng.Start(context.Background(), "", orgAdmin)
	require.NoError(t, err)
	assert.Equal(t, "generated", view.SessionID)
}

func TestEngine_PartialInvitations(t *testing.T) {
	gw := &fakeGateway{failing: map[string]string{"b@x.com": "already a member"}}
	eng := onboard.New(onboard.WithGateway(gw))
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	_, err = eng.Input(ctx, "s1", "", "Ana, a@x.com\nBen, b@x.com\nCid, c@x.com")
	require.NoError(t, err)
	eng.Wait()

	view, err := eng.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageTeam, view.CurrentStage)

	last := lastSystemTurn(t, view)
	assert.Contains(t, last.Body, "Sent 2 of 3 invitations")
	assert.Contains(t, last.Body, "b@x.com: already a member")
	assert.Equal(t, []string{"retry_failed", "continue_anyway"}, last.Tokens())

	// Retrying resends only the failed recipient.
	delete(gw.failing, "b@x.com")
	_, err = eng.Input(ctx, "s1", "retry_failed", "")
	require.NoError(t, err)
	eng.Wait()

	require.Len(t, gw.invited, 2)
	require.Len(t, gw.invited[1], 1)
	assert.Equal(t, "b@x.com", gw.invited[1][0].Email)

	view, err = eng.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageEquipment, view.CurrentStage)
}

func TestEngine_NoGatewaySavesLocallyAndMovesOn(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	_, err = eng.Input(ctx, "s1", "", "Ana, a@x.com")
	require.NoError(t, err)
	eng.Wait()

	view, err := eng.View(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, containsBody(view, "saved locally"))
	assert.Equal(t, domain.StageEquipment, view.CurrentStage)
}

func TestEngine_ValidateThenCommitImport(t *testing.T) {
	gw := &fakeGateway{summary: domain.ImportSummary{TotalRows: 4, SuccessCount: 4}}
	eng := onboard.New(onboard.WithGateway(gw), onboard.WithUpdateMode(true))
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	_, err = eng.Jump(ctx, "s1", domain.StageEquipment)
	require.NoError(t, err)

	_, err = eng.SelectFile(ctx, "s1", domain.StageEquipment, domain.Upload{Name: "equipment.csv", Content: []byte("a,b\n1,2\n")})
	require.NoError(t, err)
	eng.Wait()

	view, err := eng.View(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, lastSystemTurn(t, view).Tokens(), "confirm_equipment")

	_, err = eng.Input(ctx, "s1", "confirm_equipment", "")
	require.NoError(t, err)
	eng.Wait()

	require.Len(t, gw.imports, 2)
	assert.True(t, gw.imports[0].DryRun)
	assert.False(t, gw.imports[1].DryRun)
	assert.True(t, gw.imports[1].UpdateMode)
	assert.Equal(t, domain.ImportEquipment, gw.imports[1].Kind)
	assert.Equal(t, "user-7", gw.imports[1].CreatedBy)
	assert.Equal(t, "org-1", gw.imports[1].OrganizationID)

	state, err := eng.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, state.Data(domain.StageEquipment)["imported_rows"])
	assert.Equal(t, domain.StageParts, state.CurrentStage)
}

func TestEngine_RefusesSecondEffectWhileInFlight(t *testing.T) {
	gw := &fakeGateway{release: make(chan struct{})}
	eng := onboard.New(onboard.WithGateway(gw))
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	view, err := eng.Input(ctx, "s1", "", "Ana, a@x.com")
	require.NoError(t, err)
	assert.True(t, view.Stages[0].Pending)

	view, err = eng.Input(ctx, "s1", "", "Ben, b@x.com")
	require.NoError(t, err)
	assert.Contains(t, lastSystemTurn(t, view).Body, "still working")

	close(gw.release)
	eng.Wait()

	require.Len(t, gw.invited, 1)
	view, err = eng.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageEquipment, view.CurrentStage)
}

func TestEngine_CloseSettlesCancelledEffects(t *testing.T) {
	gw := &fakeGateway{release: make(chan struct{})}
	eng := onboard.New(onboard.WithGateway(gw))
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	_, err = eng.Input(ctx, "s1", "", "Ana, a@x.com")
	require.NoError(t, err)

	require.NoError(t, eng.Close())

	state, err := eng.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, state.Pending)
}

func TestEngine_EffectsAfterCloseSettleAsUnreachable(t *testing.T) {
	gw := &fakeGateway{}
	eng := onboard.New(onboard.WithGateway(gw))
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	_, err = eng.Input(ctx, "s1", "", "Ana, a@x.com")
	require.NoError(t, err)
	assert.Empty(t, gw.invited)

	view, err := eng.View(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, containsBody(view, "saved locally"))
	assert.Equal(t, domain.StageEquipment, view.CurrentStage)

	state, err := eng.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, state.Pending)
}

func TestEngine_CloseRacesWithInput(t *testing.T) {
	eng := onboard.New(onboard.WithGateway(&fakeGateway{}))
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		_, err := eng.Start(ctx, id, orgAdmin)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = eng.Input(ctx, id, "", "Ana, a@x.com")
		}()
	}
	require.NoError(t, eng.Close())
	wg.Wait()

	for _, id := range ids {
		state, err := eng.Load(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, state.Pending, id)
	}
}

func TestEngine_JumpRejectsInapplicableStage(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)

	_, err = eng.Jump(ctx, "s1", domain.StageManufacturer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEngine_UnknownSession(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()

	_, err := eng.View(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = eng.Input(context.Background(), "missing", "skip_team", "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_UnknownTokenIsAnsweredSoftly(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)

	view, err := eng.Input(ctx, "s1", "dance", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StageTeam, view.CurrentStage)
	assert.Equal(t, "I'm not sure how to help with that.", lastSystemTurn(t, view).Body)
}

func TestEngine_SubscribeStreamsDiffs(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)

	diffs, cancel := eng.Subscribe("s1")
	defer cancel()

	_, err = eng.Input(ctx, "s1", "skip_team", "")
	require.NoError(t, err)

	select {
	case diff := <-diffs:
		require.NotNil(t, diff.CurrentStage)
		assert.Equal(t, domain.StageEquipment, *diff.CurrentStage)
		assert.NotEmpty(t, diff.Turns)
	case <-time.After(time.Second):
		t.Fatal("no diff received")
	}
}

func TestEngine_HandleReportsExit(t *testing.T) {
	eng := onboard.New()
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)

	step, err := eng.Handle(ctx, "s1", domain.Action{Kind: domain.ActionManual})
	require.NoError(t, err)
	assert.True(t, step.Exit)
	assert.Equal(t, domain.StatusExited, step.State.Status)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var entered []domain.StageID
	hooks := domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			mu.Lock()
			defer mu.Unlock()
			entered = append(entered, e.Stage)
		},
	}
	eng := onboard.New(onboard.WithLifecycleHooks(hooks))
	defer eng.Close()
	ctx := context.Background()

	_, err := eng.Start(ctx, "s1", orgAdmin)
	require.NoError(t, err)
	_, err = eng.Input(ctx, "s1", "skip_team", "")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.StageID{domain.StageTeam, domain.StageEquipment}, entered)
}
