package domain

import "time"

// EffectKind names the side effects a handler can schedule.
type EffectKind string

const (
	EffectSendInvitations EffectKind = "send_invitations"
	EffectValidateImport  EffectKind = "validate_import"
	EffectCommitImport    EffectKind = "commit_import"
)

// Effect is a side effect scheduled by a stage handler and executed by the
// host through the gateway. While pending it doubles as the per-stage
// in-flight marker.
type Effect struct {
	ID          string            `json:"id"`
	Kind        EffectKind        `json:"kind"`
	Stage       StageID           `json:"stage"`
	Recipients  []TeamMemberDraft `json:"recipients,omitempty"`
	Upload      *Upload           `json:"upload,omitempty"`
	ScheduledAt time.Time         `json:"scheduled_at"`
}

// Settlement is the outcome of an Effect, fed back into the engine.
type Settlement struct {
	EffectID string         `json:"effect_id"`
	Batch    *BatchResult   `json:"batch,omitempty"`
	Import   *ImportSummary `json:"import,omitempty"`

	// Err is set when the gateway could not run the effect at all.
	Err error `json:"-"`
}

// Step is the outcome of processing a single event: the new state, the
// turns appended while processing it and the follow-ups the host must act on.
type Step struct {
	State *State `json:"state"`
	Turns []Turn `json:"turns"`

	// From and To describe a stage transition; To is empty when the cursor did not move.
	From StageID `json:"from,omitempty"`
	To   StageID `json:"to,omitempty"`

	// Effect is the side effect to run, if any.
	Effect *Effect `json:"effect,omitempty"`

	// Exit asks the host to leave the guided flow.
	Exit bool `json:"exit,omitempty"`
}

// Transitioned reports whether the step moved the cursor.
func (s *Step) Transitioned() bool {
	return s.To != ""
}
