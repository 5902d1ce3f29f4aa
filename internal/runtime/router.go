package runtime

import (
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

// route dispatches an action for the current stage. The switch is
// exhaustive over domain.ActionKind; combinations that do not apply to the
// current stage fall through to unrecognized.
func (e *Engine) route(c *call, a domain.Action) {
	stage := c.state.CurrentStage

	switch a.Kind {
	case domain.ActionManual:
		e.onManual(c)

	case domain.ActionFreeText:
		switch stage {
		case domain.StageManufacturer:
			e.onCompanyName(c, a.Text)
		case domain.StageTeam:
			e.onTeamText(c, a.Text)
		default:
			e.unrecognized(c)
		}

	case domain.ActionInviteTeam:
		if stage != domain.StageTeam {
			e.unrecognized(c)
			return
		}
		c.say(msgInviteInstructions)

	case domain.ActionSkip, domain.ActionContinue:
		if a.Stage != stage || stage == domain.StageReview {
			e.unrecognized(c)
			return
		}
		e.onLeave(c, a.Kind)

	case domain.ActionUpload:
		if a.Stage != stage || !c.current().AcceptsFiles() {
			e.unrecognized(c)
			return
		}
		c.say(msgProvideFile)

	case domain.ActionConfirm:
		staged, ok := c.state.Staged[a.Stage]
		if a.Stage != stage || !ok {
			e.unrecognized(c)
			return
		}
		e.onConfirm(c, staged)

	case domain.ActionCancel:
		if _, ok := c.state.Staged[a.Stage]; a.Stage != stage || !ok {
			e.unrecognized(c)
			return
		}
		delete(c.state.Staged, stage)
		c.say(msgUploadCancelled)
		c.prompt(c.current())

	case domain.ActionRetryFailed:
		if stage != domain.StageTeam || len(c.state.FailedRecipients) == 0 {
			e.unrecognized(c)
			return
		}
		e.sendInvitations(c, c.state.FailedRecipients)

	case domain.ActionContinueAnyway:
		if stage != domain.StageTeam || len(c.state.FailedRecipients) == 0 {
			e.unrecognized(c)
			return
		}
		c.state.FailedRecipients = nil
		c.say(msgContinuing)
		c.advance()

	case domain.ActionComplete:
		if stage != domain.StageReview {
			e.unrecognized(c)
			return
		}
		e.onComplete(c)

	case domain.ActionUnknown:
		e.unrecognized(c)

	default:
		e.unrecognized(c)
	}
}

func (e *Engine) unrecognized(c *call) {
	c.say(msgUnrecognized)
}

func (e *Engine) onManual(c *call) {
	c.say(msgManual)
	c.state.Status = domain.StatusExited
	c.step.Exit = true
	e.emitStageLeave(c.ctx, c.state, c.state.CurrentStage)
	e.logger.Debug("session exited to manual entry", "session_id", c.state.SessionID, "stage", c.state.CurrentStage)
}

func (e *Engine) onCompanyName(c *call, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		c.prompt(c.current())
		return
	}
	c.record(domain.StageManufacturer, map[string]any{"company_name": name})
	c.say(companyRecorded(name))
	c.advance()
}

func (e *Engine) onTeamText(c *call, text string) {
	drafts := domain.ParseTeamMembers(text)
	if len(drafts) == 0 {
		c.say(msgTeamFormat)
		return
	}
	e.sendInvitations(c, drafts)
}

func (e *Engine) sendInvitations(c *call, recipients []domain.TeamMemberDraft) {
	effect := domain.Effect{
		Kind:       domain.EffectSendInvitations,
		Stage:      domain.StageTeam,
		Recipients: recipients,
	}
	if c.schedule(effect) {
		c.say(sendingInvitations(len(recipients)))
	}
}

func (e *Engine) onLeave(c *call, kind domain.ActionKind) {
	stage := c.state.CurrentStage
	delete(c.state.Staged, stage)
	if stage == domain.StageTeam {
		c.state.FailedRecipients = nil
	}
	if kind == domain.ActionSkip {
		c.say(skipAcknowledged(c.current().Label))
	} else {
		c.say(msgContinuing)
	}
	c.advance()
}

func (e *Engine) onFileSelected(c *call, stage domain.Stage, upload domain.Upload) {
	if !stage.AcceptsFiles() {
		c.sayAt(stage.ID, msgNoFilesHere)
		return
	}
	upload.Kind = stage.Import
	effect := domain.Effect{
		Kind:   domain.EffectValidateImport,
		Stage:  stage.ID,
		Upload: &upload,
	}
	if c.schedule(effect) {
		delete(c.state.Staged, stage.ID)
		c.sayAt(stage.ID, checkingFile(upload.Name))
	}
}

func (e *Engine) onConfirm(c *call, staged domain.StagedUpload) {
	upload := staged.Upload
	effect := domain.Effect{
		Kind:   domain.EffectCommitImport,
		Stage:  c.state.CurrentStage,
		Upload: &upload,
	}
	if c.schedule(effect) {
		c.say(importingFile(upload.Name))
	}
}

func (e *Engine) onComplete(c *call) {
	var collected []string
	for _, s := range e.catalog.Applicable(c.state.Session) {
		if len(c.state.Data(s.ID)) > 0 {
			collected = append(collected, s.Label)
		}
	}
	c.say(completionSummary(collected))
	c.state.Status = domain.StatusCompleted
	e.emitStageLeave(c.ctx, c.state, c.state.CurrentStage)
	e.logger.Debug("session completed", "session_id", c.state.SessionID, "stages_with_data", len(collected))
}
