package domain

import "strings"

// DefaultMemberRole is assigned when a team line omits the role field.
const DefaultMemberRole = "manager"

// TeamMemberDraft is a recipient parsed from team free text. It only lives
// until its invitation attempt settles.
type TeamMemberDraft struct {
	Name  string `json:"name" mapstructure:"name"`
	Email string `json:"email" mapstructure:"email"`
	Role  string `json:"role" mapstructure:"role"`
}

// ParseTeamMembers reads one member per non-empty line, with comma separated
// name, email and optional role.
func ParseTeamMembers(text string) []TeamMemberDraft {
	var drafts []TeamMemberDraft
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		draft := TeamMemberDraft{Name: fields[0], Role: DefaultMemberRole}
		if len(fields) > 1 {
			draft.Email = fields[1]
		}
		if len(fields) > 2 && fields[2] != "" {
			draft.Role = fields[2]
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// InvitationOutcome is the result of inviting one recipient.
type InvitationOutcome struct {
	Recipient   TeamMemberDraft `json:"recipient"`
	Succeeded   bool            `json:"succeeded"`
	ErrorDetail string          `json:"error_detail,omitempty"`
}

// BatchResult aggregates the outcomes of one invitation batch.
type BatchResult struct {
	Attempted int                 `json:"attempted"`
	Succeeded int                 `json:"succeeded"`
	Failed    []InvitationOutcome `json:"failed,omitempty"`
}

// BatchClass classifies a BatchResult.
type BatchClass string

const (
	BatchFullSuccess BatchClass = "full_success"
	BatchPartial     BatchClass = "partial"
	BatchFullFailure BatchClass = "full_failure"
)

// Classify returns the aggregate classification of the batch.
func (b BatchResult) Classify() BatchClass {
	switch {
	case b.Succeeded == b.Attempted:
		return BatchFullSuccess
	case b.Succeeded == 0:
		return BatchFullFailure
	default:
		return BatchPartial
	}
}

// FailedRecipients returns the drafts whose invitation failed.
func (b BatchResult) FailedRecipients() []TeamMemberDraft {
	out := make([]TeamMemberDraft, len(b.Failed))
	for i, f := range b.Failed {
		out[i] = f.Recipient
	}
	return out
}
