package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestNewTo_NormalizesErrorKeyAndMasksCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewTo(&buf, slog.LevelInfo)

	logger.Info("gateway call failed", "error", errors.New("boom"), "auth_token", "secret", "token", "skip_team")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "redacted")
	assert.Contains(t, out, "token=skip_team")
	assert.NotContains(t, out, "hidden")
}

func TestNewNop(t *testing.T) {
	logger := logging.NewNop()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
