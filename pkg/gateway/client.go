package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

// Client is a thin HTTP client over the backend endpoints used during onboarding.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	cfg := newConfig(opts)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cfg.httpClient,
		logger:  cfg.logger,
	}
}

type invitationBody struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// SendInvitation invites one recipient into the organization.
func (c *Client) SendInvitation(ctx context.Context, orgID, token string, r domain.TeamMemberDraft) error {
	body, err := json.Marshal(invitationBody{Email: r.Email, Name: r.Name, Role: r.Role})
	if err != nil {
		return fmt.Errorf("failed to encode invitation: %w", err)
	}

	endpoint := c.baseURL + "/organizations/" + url.PathEscape(orgID) + "/invitations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build invitation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("invitation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return readAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type importResponse struct {
	TotalRows    int               `json:"total_rows"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Errors       []domain.RowError `json:"errors"`
}

// Import submits a bulk-import file. Row-level failures come back in the
// summary; only transport and non-2xx responses are errors.
func (c *Client) Import(ctx context.Context, r domain.ImportRequest) (domain.ImportSummary, error) {
	path, err := ImportPath(r.Kind, r.OrganizationID)
	if err != nil {
		return domain.ImportSummary{}, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("csv_file", r.File.Name)
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("failed to build import form: %w", err)
	}
	if _, err := part.Write(r.File.Content); err != nil {
		return domain.ImportSummary{}, fmt.Errorf("failed to build import form: %w", err)
	}
	fields := map[string]string{
		"created_by":  r.CreatedBy,
		"dry_run":     strconv.FormatBool(r.DryRun),
		"update_mode": strconv.FormatBool(r.UpdateMode),
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return domain.ImportSummary{}, fmt.Errorf("failed to build import form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return domain.ImportSummary{}, fmt.Errorf("failed to build import form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("failed to build import request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+r.AuthToken)

	c.logger.Debug("submitting import", "kind", r.Kind, "file", r.File.Name, "dry_run", r.DryRun)
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("import request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return domain.ImportSummary{}, readAPIError(resp)
	}

	var out importResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ImportSummary{}, fmt.Errorf("failed to decode import response: %w", err)
	}
	return domain.ImportSummary(out), nil
}

// ImportPath returns the endpoint for an import kind.
func ImportPath(kind domain.ImportKind, orgID string) (string, error) {
	switch kind {
	case domain.ImportOrganizations:
		return "/organizations/import", nil
	case domain.ImportTeamMembers:
		if orgID == "" {
			return "", fmt.Errorf("team member import: %w", domain.ErrNoOrganization)
		}
		return "/organizations/" + url.PathEscape(orgID) + "/members/import", nil
	case domain.ImportEquipment:
		return "/equipment/catalog/import", nil
	case domain.ImportParts:
		return "/parts/catalog/import", nil
	case domain.ImportEngineers:
		return "/engineers/import", nil
	case domain.ImportInstallations:
		return "/installations/import", nil
	}
	return "", fmt.Errorf("unknown import kind %q", kind)
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
