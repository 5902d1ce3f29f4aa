package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := onboard.New()
	t.Cleanup(func() { eng.Close() })
	return NewServer(eng, nil)
}

func TestStartAndSkip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleStart(ctx, mcp.CallToolRequest{}, startArgs{SessionID: "s1", Role: "org_admin", OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageTeam, resp.Session.CurrentStage)
	require.NotEmpty(t, resp.Choices)
	assert.Equal(t, "invite_team", resp.Choices[0].Token)

	resp, err = s.handleInput(ctx, mcp.CallToolRequest{}, inputArgs{SessionID: "s1", Token: "skip_team"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageEquipment, resp.Session.CurrentStage)
	assert.Contains(t, tokens(resp.Choices), "upload_equipment")
}

func TestStart_RejectsUnknownRole(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleStart(context.Background(), mcp.CallToolRequest{}, startArgs{Role: "guest"})
	assert.Error(t, err)
}

func TestInput_WaitsForEffects(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, startArgs{SessionID: "s1", Role: "org_admin", OrganizationID: "org-1", Token: "t"})
	require.NoError(t, err)

	// No gateway is configured, so the invitation settles as unreachable
	// before the tool returns.
	resp, err := s.handleInput(ctx, mcp.CallToolRequest{}, inputArgs{SessionID: "s1", Text: "Ana, ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageEquipment, resp.Session.CurrentStage)
	for _, stage := range resp.Session.Stages {
		assert.False(t, stage.Pending)
	}
}

func TestJumpAndGet(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, startArgs{SessionID: "s1", Role: "platform_admin"})
	require.NoError(t, err)

	_, err = s.handleJump(ctx, mcp.CallToolRequest{}, jumpArgs{SessionID: "s1", Stage: "review"})
	require.NoError(t, err)

	resp, err := s.handleGet(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageReview, resp.Session.CurrentStage)
	assert.Equal(t, []string{"complete"}, tokens(resp.Choices))

	_, err = s.handleGet(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSelectFile_NoFilesOnReview(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, startArgs{SessionID: "s1", Role: "org_admin"})
	require.NoError(t, err)

	resp, err := s.handleFile(ctx, mcp.CallToolRequest{}, fileArgs{SessionID: "s1", Stage: "review", Name: "x.csv", Content: "a"})
	require.NoError(t, err)
	last := resp.Session.Turns[len(resp.Session.Turns)-1]
	assert.Equal(t, "This step doesn't take files.", last.Body)
}

func TestRespond_ChoicesFromLatestPrompt(t *testing.T) {
	s := newTestServer(t)
	view := &domain.SessionView{Turns: []domain.Turn{
		{Speaker: domain.SpeakerSystem, Choices: []domain.Choice{{Label: "Skip", Token: "skip_team"}}},
		{Speaker: domain.SpeakerSystem, Body: "I'm not sure how to help with that."},
		{Speaker: domain.SpeakerUser, Body: "hi"},
	}}

	resp, err := s.respond(view, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"skip_team"}, tokens(resp.Choices))

	resp, err = s.respond(&domain.SessionView{}, nil)
	require.NoError(t, err)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"choices":[]`)
}

func tokens(choices []domain.Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Token
	}
	return out
}
