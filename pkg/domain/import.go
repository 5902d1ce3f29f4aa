package domain

// ImportKind names the bulk-import endpoint family used by a stage.
type ImportKind string

const (
	ImportOrganizations ImportKind = "organizations"
	ImportTeamMembers   ImportKind = "team_members"
	ImportEquipment     ImportKind = "equipment"
	ImportParts         ImportKind = "parts"
	ImportEngineers     ImportKind = "engineers"
	ImportInstallations ImportKind = "installations"
)

// Upload is a file handed to the engine by the host. The engine never looks
// inside Content.
type Upload struct {
	Name    string     `json:"name"`
	Content []byte     `json:"content,omitempty"`
	Kind    ImportKind `json:"kind"`
}

// RowError is a row-level validation failure reported by the import endpoint.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary is the opaque import result rendered back to the user.
type ImportSummary struct {
	TotalRows    int        `json:"total_rows"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	Errors       []RowError `json:"errors,omitempty"`
}

// Clean reports whether the import reported no failures.
func (s ImportSummary) Clean() bool {
	return s.FailureCount == 0 && len(s.Errors) == 0
}

// ImportRequest is what the gateway submits to an import endpoint.
type ImportRequest struct {
	Kind           ImportKind
	OrganizationID string
	AuthToken      string
	CreatedBy      string
	File           Upload
	DryRun         bool
	UpdateMode     bool
}
