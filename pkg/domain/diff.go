package domain

import (
	"maps"
	"reflect"
	"slices"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStage *StageID         `json:"current_stage,omitempty"`
	Status       *ExecutionStatus `json:"status,omitempty"`

	// StageData contains only the stages whose payload changed, with their
	// full new payload. Clients replace their local copy per stage.
	StageData map[StageID]map[string]any `json:"stage_data,omitempty"`

	// Pending is the full set of in-flight stages, present only when it changed.
	Pending []StageID `json:"pending,omitempty"`

	// Turns contains the turns appended since the old state.
	Turns []Turn `json:"turns,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentStage != newState.CurrentStage {
		diff.CurrentStage = &newState.CurrentStage
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}

	diff.StageData = diffStageData(oldState, newState)
	diff.Pending = diffPending(oldState, newState)
	diff.Turns = diffTurns(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffStageData(old, new *State) map[StageID]map[string]any {
	delta := make(map[StageID]map[string]any)
	for stage, data := range new.StageData {
		if old == nil || !reflect.DeepEqual(old.StageData[stage], data) {
			delta[stage] = data
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffPending(old, new *State) []StageID {
	if old != nil && maps.EqualFunc(old.Pending, new.Pending, func(a, b Effect) bool { return a.ID == b.ID }) {
		return nil
	}
	pending := slices.Sorted(maps.Keys(new.Pending))
	if pending == nil {
		// An empty, non-nil slice still signals "nothing pending anymore".
		pending = []StageID{}
	}
	if old == nil && len(pending) == 0 {
		return nil
	}
	return pending
}

// diffTurns relies on the log being append-only.
func diffTurns(old, new *State) []Turn {
	if old == nil {
		if len(new.Turns) == 0 {
			return nil
		}
		return new.Turns
	}
	if len(new.Turns) > len(old.Turns) {
		return new.Turns[len(old.Turns):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStage == nil &&
		d.Status == nil &&
		len(d.StageData) == 0 &&
		d.Pending == nil &&
		len(d.Turns) == 0
}
