package domain

import "slices"

// StageID identifies a stage of the onboarding flow.
type StageID string

const (
	StageManufacturer  StageID = "manufacturer"
	StageTeam          StageID = "team"
	StageEquipment     StageID = "equipment"
	StageParts         StageID = "parts"
	StageEngineers     StageID = "engineers"
	StageInstallations StageID = "installations"
	StageReview        StageID = "review"
)

// KnownStages lists every stage identifier in catalog order.
var KnownStages = []StageID{
	StageManufacturer,
	StageTeam,
	StageEquipment,
	StageParts,
	StageEngineers,
	StageInstallations,
	StageReview,
}

// IsKnown reports whether id is one of the built-in stage identifiers.
func (id StageID) IsKnown() bool {
	return slices.Contains(KnownStages, id)
}

// Stage is an immutable definition of one onboarding phase.
type Stage struct {
	ID    StageID `json:"id" yaml:"id"`
	Label string  `json:"label" yaml:"label"`
	Icon  string  `json:"icon" yaml:"icon"`
	Order int     `json:"order" yaml:"order"`

	// Prompt is the introductory message emitted when the stage is entered.
	Prompt string `json:"prompt" yaml:"prompt"`
	// Choices are offered together with Prompt.
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`

	// Import is the bulk-import kind accepted by this stage, empty when the
	// stage does not take files.
	Import ImportKind `json:"import,omitempty" yaml:"import,omitempty"`

	// Applicable decides whether the stage is part of the flow for a session.
	// A nil predicate means the stage always applies.
	Applicable func(SessionContext) bool `json:"-" yaml:"-"`
}

// IsApplicable evaluates the stage predicate for the given session.
func (s Stage) IsApplicable(sc SessionContext) bool {
	if s.Applicable == nil {
		return true
	}
	return s.Applicable(sc)
}

// AcceptsFiles reports whether the stage takes bulk-import files.
func (s Stage) AcceptsFiles() bool {
	return s.Import != ""
}
