package gateway

import (
	"context"
	"log/slog"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/sourcegraph/conc/pool"
)

// Sender delivers a single invitation.
type Sender interface {
	SendInvitation(ctx context.Context, orgID, token string, r domain.TeamMemberDraft) error
}

// Coordinator sends an invitation batch, one request per recipient.
type Coordinator struct {
	sender      Sender
	concurrency int
	logger      *slog.Logger
}

// NewCoordinator creates a coordinator over sender.
func NewCoordinator(sender Sender, opts ...Option) *Coordinator {
	cfg := newConfig(opts)
	return &Coordinator{sender: sender, concurrency: cfg.concurrency, logger: cfg.logger}
}

type indexedOutcome struct {
	index   int
	outcome domain.InvitationOutcome
}

// SendInvitations invites every recipient and aggregates the outcomes.
// Individual failures never stop the batch. Failed outcomes keep the input
// order. Without an organization or credential nothing is sent.
func (c *Coordinator) SendInvitations(ctx context.Context, sc domain.SessionContext, recipients []domain.TeamMemberDraft) (domain.BatchResult, error) {
	if sc.OrganizationID == "" {
		return domain.BatchResult{}, domain.ErrNoOrganization
	}
	if !sc.HasCredential() {
		return domain.BatchResult{}, domain.ErrNoCredential
	}

	p := pool.NewWithResults[indexedOutcome]().WithMaxGoroutines(c.concurrency)
	for i, r := range recipients {
		p.Go(func() indexedOutcome {
			out := domain.InvitationOutcome{Recipient: r, Succeeded: true}
			if err := c.sender.SendInvitation(ctx, sc.OrganizationID, sc.AuthToken, r); err != nil {
				out.Succeeded = false
				out.ErrorDetail = err.Error()
				c.logger.Debug("invitation failed", "email", r.Email, "err", err)
			}
			return indexedOutcome{index: i, outcome: out}
		})
	}
	results := p.Wait()

	ordered := make([]domain.InvitationOutcome, len(recipients))
	for _, res := range results {
		ordered[res.index] = res.outcome
	}

	batch := domain.BatchResult{Attempted: len(recipients)}
	for _, out := range ordered {
		if out.Succeeded {
			batch.Succeeded++
			continue
		}
		batch.Failed = append(batch.Failed, out)
	}
	return batch, nil
}
