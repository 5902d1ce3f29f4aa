package domain

import (
	"maps"
	"slices"
	"time"
)

// ExecutionStatus defines the lifecycle of an onboarding session.
type ExecutionStatus string

const (
	StatusActive    ExecutionStatus = "active"    // Accepting input
	StatusCompleted ExecutionStatus = "completed" // Review confirmed, terminal
	StatusExited    ExecutionStatus = "exited"    // User switched to manual entry, terminal
)

// StagedUpload is a file that passed dry-run validation and awaits confirmation.
type StagedUpload struct {
	Upload  Upload        `json:"upload"`
	Summary ImportSummary `json:"summary"`
}

// State represents the current snapshot of an onboarding session.
type State struct {
	SessionID string         `json:"session_id"`
	Session   SessionContext `json:"session"`

	// CurrentStage is always a stage applicable to Session.
	CurrentStage StageID         `json:"current_stage"`
	Status       ExecutionStatus `json:"status"`

	// StageData holds what each stage collected. Merges are last-write-wins per key.
	StageData map[StageID]map[string]any `json:"stage_data,omitempty"`

	// Pending marks stages with a side effect in flight.
	Pending map[StageID]Effect `json:"pending,omitempty"`

	// FailedRecipients are kept from the last invitation batch so the user can retry them.
	FailedRecipients []TeamMemberDraft `json:"failed_recipients,omitempty"`

	// Staged holds validated uploads awaiting confirm or cancel, per stage.
	Staged map[StageID]StagedUpload `json:"staged,omitempty"`

	// Turns is the append-only conversation log.
	Turns []Turn `json:"turns"`

	// History tracks the stages entered, in order.
	History []StageID `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean state positioned at the given stage.
func NewState(sessionID string, sc SessionContext, first StageID) *State {
	return &State{
		SessionID:    sessionID,
		Session:      sc,
		CurrentStage: first,
		Status:       StatusActive,
		StageData:    make(map[StageID]map[string]any),
		Pending:      make(map[StageID]Effect),
		Staged:       make(map[StageID]StagedUpload),
		Turns:        []Turn{},
		History:      []StageID{first},
	}
}

// IsClosed reports whether the session reached a terminal status.
func (s *State) IsClosed() bool {
	return s.Status == StatusCompleted || s.Status == StatusExited
}

// InFlight reports whether a side effect is pending for the stage.
func (s *State) InFlight(stage StageID) bool {
	_, ok := s.Pending[stage]
	return ok
}

// Data returns the recorded payload for a stage (nil when empty).
func (s *State) Data(stage StageID) map[string]any {
	return s.StageData[stage]
}

// Snapshot returns a deep copy that can be mutated without affecting s.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.StageData = make(map[StageID]map[string]any, len(s.StageData))
	for stage, data := range s.StageData {
		next.StageData[stage] = maps.Clone(data)
	}
	next.Pending = maps.Clone(s.Pending)
	if next.Pending == nil {
		next.Pending = make(map[StageID]Effect)
	}
	next.Staged = maps.Clone(s.Staged)
	if next.Staged == nil {
		next.Staged = make(map[StageID]StagedUpload)
	}
	next.FailedRecipients = slices.Clone(s.FailedRecipients)
	next.Turns = slices.Clone(s.Turns)
	if next.Turns == nil {
		next.Turns = []Turn{}
	}
	next.History = slices.Clone(s.History)
	return &next
}
