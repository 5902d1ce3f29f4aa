package domain

import (
	"fmt"
	"strings"
)

// ActionKind is the closed set of intents the router understands.
type ActionKind string

const (
	// ActionFreeText carries raw text typed by the user.
	ActionFreeText ActionKind = "free_text"
	// ActionInviteTeam asks for instructions on typing team members.
	ActionInviteTeam ActionKind = "invite_team"
	// ActionUpload asks to provide a bulk-import file for a stage.
	ActionUpload ActionKind = "upload"
	// ActionSkip leaves a stage without collecting anything.
	ActionSkip ActionKind = "skip"
	// ActionContinue leaves a stage after collecting data.
	ActionContinue ActionKind = "continue"
	// ActionConfirm persists a validated upload.
	ActionConfirm ActionKind = "confirm"
	// ActionCancel discards a validated upload.
	ActionCancel ActionKind = "cancel"
	// ActionRetryFailed resends invitations that failed in the last batch.
	ActionRetryFailed ActionKind = "retry_failed"
	// ActionContinueAnyway moves on despite failed invitations.
	ActionContinueAnyway ActionKind = "continue_anyway"
	// ActionComplete finishes the flow from the review stage.
	ActionComplete ActionKind = "complete"
	// ActionManual leaves the guided flow for manual entry screens.
	ActionManual ActionKind = "manual"
	// ActionUnknown is produced for tokens that cannot be parsed. It is
	// routed like any other action and answered with a generic reply.
	ActionUnknown ActionKind = "unknown"
)

// stageScoped lists kinds whose token is suffixed with a stage id.
var stageScoped = []ActionKind{ActionUpload, ActionSkip, ActionContinue, ActionConfirm, ActionCancel}

// Action is one user event addressed to the router.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Stage StageID    `json:"stage,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// FreeText wraps raw user text into an action.
func FreeText(text string) Action {
	return Action{Kind: ActionFreeText, Text: text}
}

// StageAction builds a stage-scoped action such as skip_team.
func StageAction(kind ActionKind, stage StageID) Action {
	return Action{Kind: kind, Stage: stage}
}

// Token returns the wire representation of the action.
func (a Action) Token() string {
	switch a.Kind {
	case ActionUnknown:
		return a.Text
	case ActionUpload, ActionSkip, ActionContinue, ActionConfirm, ActionCancel:
		return string(a.Kind) + "_" + string(a.Stage)
	default:
		return string(a.Kind)
	}
}

// Choice builds a Choice offering this action.
func (a Action) Choice(label string) Choice {
	return Choice{Label: label, Token: a.Token()}
}

// ParseAction converts an action token into an Action, accepting the
// built-in stage ids as suffixes. Unparseable tokens yield an ActionUnknown
// action together with an error wrapping ErrUnknownAction, so callers may
// still route them softly.
func ParseAction(token string) (Action, error) {
	return ParseActionFor(token, StageID.IsKnown)
}

// ParseActionFor is ParseAction with the set of stage suffixes decided by
// known, typically the lookup of the catalog the session runs.
func ParseActionFor(token string, known func(StageID) bool) (Action, error) {
	token = strings.TrimSpace(token)
	switch ActionKind(token) {
	case ActionFreeText, ActionInviteTeam, ActionRetryFailed, ActionContinueAnyway, ActionComplete, ActionManual:
		return Action{Kind: ActionKind(token)}, nil
	}

	for _, kind := range stageScoped {
		prefix := string(kind) + "_"
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		stage := StageID(strings.TrimPrefix(token, prefix))
		if stage != "" && known(stage) {
			return StageAction(kind, stage), nil
		}
	}

	return Action{Kind: ActionUnknown, Text: token}, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}
