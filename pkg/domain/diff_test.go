package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	hello := Turn{ID: "t1", Speaker: SpeakerSystem, Body: "hello", Kind: TurnText}
	reply := Turn{ID: "t2", Speaker: SpeakerUser, Body: "hi", Kind: TurnText}
	completed := StatusCompleted

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				SessionID:    "sess-1",
				CurrentStage: StageTeam,
				Status:       StatusActive,
				StageData:    map[StageID]map[string]any{StageTeam: {"invited": 1}},
				Turns:        []Turn{hello},
			},
			wantDiff: &StateDiff{
				SessionID:    "sess-1",
				CurrentStage: &[]StageID{StageTeam}[0],
				StageData:    map[StageID]map[string]any{StageTeam: {"invited": 1}},
				Turns:        []Turn{hello},
			},
		},
		{
			name: "No Changes",
			old: &State{
				SessionID:    "sess-1",
				CurrentStage: StageTeam,
				Status:       StatusActive,
				Turns:        []Turn{hello},
			},
			new: &State{
				SessionID:    "sess-1",
				CurrentStage: StageTeam,
				Status:       StatusActive,
				Turns:        []Turn{hello},
			},
			wantDiff: nil,
		},
		{
			name: "Turns Appended",
			old: &State{
				SessionID:    "sess-1",
				CurrentStage: StageTeam,
				Turns:        []Turn{hello},
			},
			new: &State{
				SessionID:    "sess-1",
				CurrentStage: StageEquipment,
				Turns:        []Turn{hello, reply},
			},
			wantDiff: &StateDiff{
				SessionID:    "sess-1",
				CurrentStage: &[]StageID{StageEquipment}[0],
				Turns:        []Turn{reply},
			},
		},
		{
			name: "Status Change",
			old:  &State{SessionID: "sess-1", CurrentStage: StageReview, Status: StatusActive},
			new:  &State{SessionID: "sess-1", CurrentStage: StageReview, Status: StatusCompleted},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Status:    &completed,
			},
		},
		{
			name: "Pending Settled",
			old: &State{
				SessionID: "sess-1",
				Pending:   map[StageID]Effect{StageTeam: {ID: "e1"}},
			},
			new: &State{
				SessionID: "sess-1",
				Pending:   map[StageID]Effect{},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Pending:   []StageID{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}
			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.StageData, tt.wantDiff.StageData) {
				t.Errorf("Diff().StageData = %v, want %v", got.StageData, tt.wantDiff.StageData)
			}
			if !reflect.DeepEqual(got.Turns, tt.wantDiff.Turns) {
				t.Errorf("Diff().Turns = %v, want %v", got.Turns, tt.wantDiff.Turns)
			}
			if !reflect.DeepEqual(got.Pending, tt.wantDiff.Pending) {
				t.Errorf("Diff().Pending = %v, want %v", got.Pending, tt.wantDiff.Pending)
			}
			if !equalPtr(got.CurrentStage, tt.wantDiff.CurrentStage) {
				t.Errorf("Diff().CurrentStage = %v, want %v", got.CurrentStage, tt.wantDiff.CurrentStage)
			}
			if !equalPtr(got.Status, tt.wantDiff.Status) {
				t.Errorf("Diff().Status = %v, want %v", got.Status, tt.wantDiff.Status)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	s1 := &State{SessionID: "s", Turns: []Turn{{ID: "a"}}}
	s2 := &State{SessionID: "s", Turns: []Turn{{ID: "a"}, {ID: "b"}}}

	diff := Diff(s1, s2)
	if diff == nil {
		t.Fatal("Expected diff, got nil")
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(bytes), `"stage_data"`) {
		t.Errorf("JSON should not contain 'stage_data' when unchanged, got: %s", bytes)
	}
	if !strings.Contains(string(bytes), `"id":"b"`) {
		t.Errorf("JSON should contain appended turn, got: %s", bytes)
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
