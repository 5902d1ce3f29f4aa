package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// Gateway performs the side effects scheduled by the engine against the
// backend API.
type Gateway interface {
	// SendInvitations invites every recipient, continuing past individual
	// failures. It returns domain.ErrSideEffectUnreachable without any
	// network call when the session has no organization or credential.
	SendInvitations(ctx context.Context, sc domain.SessionContext, recipients []domain.TeamMemberDraft) (domain.BatchResult, error)

	// Import submits a bulk-import file. Row-level failures are reported in
	// the summary, not as an error.
	Import(ctx context.Context, req domain.ImportRequest) (domain.ImportSummary, error)
}
