package gateway

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// Gateway implements ports.Gateway over the backend HTTP API.
type Gateway struct {
	client      *Client
	coordinator *Coordinator
}

// New creates a gateway for the backend at baseURL.
func New(baseURL string, opts ...Option) *Gateway {
	client := NewClient(baseURL, opts...)
	return &Gateway{
		client:      client,
		coordinator: NewCoordinator(client, opts...),
	}
}

// SendInvitations delegates to the batch coordinator.
func (g *Gateway) SendInvitations(ctx context.Context, sc domain.SessionContext, recipients []domain.TeamMemberDraft) (domain.BatchResult, error) {
	return g.coordinator.SendInvitations(ctx, sc, recipients)
}

// Import submits a bulk-import file.
func (g *Gateway) Import(ctx context.Context, req domain.ImportRequest) (domain.ImportSummary, error) {
	if req.AuthToken == "" {
		return domain.ImportSummary{}, domain.ErrNoCredential
	}
	return g.client.Import(ctx, req)
}
