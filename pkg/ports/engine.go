package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// SessionEngine is the host-facing surface of the onboarding engine. Every
// call returns the projected view of the session after the event.
type SessionEngine interface {
	Start(ctx context.Context, sessionID string, sc domain.SessionContext) (*domain.SessionView, error)
	Input(ctx context.Context, sessionID, token, text string) (*domain.SessionView, error)
	Jump(ctx context.Context, sessionID string, stage domain.StageID) (*domain.SessionView, error)
	SelectFile(ctx context.Context, sessionID string, stage domain.StageID, upload domain.Upload) (*domain.SessionView, error)
	View(ctx context.Context, sessionID string) (*domain.SessionView, error)
	Stages(sc domain.SessionContext) []domain.Stage

	// Subscribe streams state diffs for a session until cancel is called.
	Subscribe(sessionID string) (diffs <-chan *domain.StateDiff, cancel func())
}
