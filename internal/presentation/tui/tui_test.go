package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_KeepsText(t *testing.T) {
	render := NewRenderer()

	out, err := render("Sent 2 of 3 invitations. 1 invitation failed:\n\n- Ben: already a member")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent 2 of 3 invitations")
	assert.Contains(t, out, "already a member")
}

func TestPrintSidebar(t *testing.T) {
	var buf bytes.Buffer
	PrintSidebar(&buf, &domain.SessionView{
		Progress: 0.4,
		Stages: []domain.StageView{
			{ID: domain.StageTeam, Label: "Team", Icon: "👥", HasData: true},
			{ID: domain.StageEquipment, Label: "Equipment", Icon: "🛠️", Current: true, Pending: true},
			{ID: domain.StageParts, Label: "Parts", Icon: "🔩"},
		},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Progress: 40%\n"))
	assert.Contains(t, out, "✓ 👥 Team")
	assert.Contains(t, out, "▶ 🛠️ Equipment")
	assert.Contains(t, out, "(working…)")
	assert.Contains(t, out, "Parts")
}

func TestPrintBanner_ShowsVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "guided setup 1.2.3")
}
