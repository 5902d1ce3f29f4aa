package main

import (
	"bytes"
	"testing"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "onboard version "+onboard.Version+"\n", out)
}

func TestStagesCommand(t *testing.T) {
	out, err := run(t, "stages", "--role", "org_admin")
	require.NoError(t, err)

	var stages []domain.Stage
	require.NoError(t, yaml.Unmarshal([]byte(out), &stages))
	require.NotEmpty(t, stages)
	assert.Equal(t, domain.StageTeam, stages[0].ID)
	for _, s := range stages {
		assert.NotEqual(t, domain.StageManufacturer, s.ID)
	}

	_, err = run(t, "stages", "--role", "guest")
	assert.ErrorContains(t, err, `unsupported role "guest"`)
}

func TestSessionCommands_FileStore(t *testing.T) {
	t.Setenv("ONBOARD_STORE_KIND", "file")
	t.Setenv("ONBOARD_STORE_DIR", t.TempDir())

	out, err := run(t, "session", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = run(t, "session", "inspect", "missing")
	assert.Error(t, err)
}

func TestStagesCommand_Mermaid(t *testing.T) {
	out, err := run(t, "stages", "--role", "platform_admin", "--format", "mermaid")
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, "manufacturer --> team")

	_, err = run(t, "stages", "--format", "dot")
	assert.ErrorContains(t, err, `unknown format "dot"`)
}
