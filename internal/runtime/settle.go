package runtime

import (
	"errors"

	"github.com/aretw0/onboard/pkg/domain"
)

// settle applies the outcome of an effect. The result turn is always
// appended; the cursor only moves if it is still on the effect's stage.
func (e *Engine) settle(c *call, effect domain.Effect, s domain.Settlement) {
	if s.Err != nil {
		e.logger.Warn("side effect unreachable", "session_id", c.state.SessionID, "effect", effect.Kind, "stage", effect.Stage, "error", s.Err)
		c.sayAt(effect.Stage, unreachable(s.Err))
		c.advanceFrom(effect.Stage)
		return
	}

	switch effect.Kind {
	case domain.EffectSendInvitations:
		e.settleInvitations(c, effect, s.Batch)
	case domain.EffectValidateImport:
		e.settleValidation(c, effect, s.Import)
	case domain.EffectCommitImport:
		e.settleCommit(c, effect, s.Import)
	}
}

func (e *Engine) settleInvitations(c *call, effect domain.Effect, batch *domain.BatchResult) {
	if batch == nil {
		batch = &domain.BatchResult{Attempted: len(effect.Recipients)}
		for _, r := range effect.Recipients {
			batch.Failed = append(batch.Failed, domain.InvitationOutcome{Recipient: r, ErrorDetail: "no result"})
		}
	}

	if batch.Succeeded > 0 {
		invited := batch.Succeeded
		invited += asInt(c.state.Data(effect.Stage)["invited"])
		c.record(effect.Stage, map[string]any{"invited": invited})
	}

	retry := []domain.Choice{
		domain.Action{Kind: domain.ActionRetryFailed}.Choice("Retry failed invitations"),
		domain.Action{Kind: domain.ActionContinueAnyway}.Choice("Continue anyway"),
	}

	switch batch.Classify() {
	case domain.BatchFullSuccess:
		c.state.FailedRecipients = nil
		c.sayAt(effect.Stage, invitationsSent(batch.Succeeded))
		c.advanceFrom(effect.Stage)
	case domain.BatchPartial:
		c.state.FailedRecipients = batch.FailedRecipients()
		c.sayAt(effect.Stage, invitationsPartial(batch), retry...)
	case domain.BatchFullFailure:
		c.state.FailedRecipients = batch.FailedRecipients()
		c.sayAt(effect.Stage, invitationsFailed(batch), retry...)
	}
}

func (e *Engine) settleValidation(c *call, effect domain.Effect, summary *domain.ImportSummary) {
	if summary == nil {
		summary = &domain.ImportSummary{}
	}
	upload := *effect.Upload
	stage := effect.Stage

	if !summary.Clean() {
		delete(c.state.Staged, stage)
		c.sayAt(stage, validationFailed(upload.Name, *summary),
			domain.StageAction(domain.ActionUpload, stage).Choice("Upload a corrected file"),
			domain.StageAction(domain.ActionSkip, stage).Choice("Skip for now"),
		)
		return
	}

	c.state.Staged[stage] = domain.StagedUpload{Upload: upload, Summary: *summary}
	c.sayAt(stage, validationPassed(upload.Name, *summary),
		domain.StageAction(domain.ActionConfirm, stage).Choice("Confirm import"),
		domain.StageAction(domain.ActionCancel, stage).Choice("Cancel"),
	)
}

func (e *Engine) settleCommit(c *call, effect domain.Effect, summary *domain.ImportSummary) {
	if summary == nil {
		summary = &domain.ImportSummary{}
	}
	stage := effect.Stage
	delete(c.state.Staged, stage)
	c.record(stage, map[string]any{
		"imported_rows": summary.SuccessCount,
		"file":          effect.Upload.Name,
	})

	if !summary.Clean() {
		c.sayAt(stage, importPartial(*summary),
			domain.StageAction(domain.ActionContinue, stage).Choice("Continue"),
			domain.StageAction(domain.ActionUpload, stage).Choice("Upload another file"),
		)
		return
	}
	c.sayAt(stage, imported(summary.SuccessCount))
	c.advanceFrom(stage)
}

// unreachable explains a failed effect, naming the missing prerequisite when
// there is one.
func unreachable(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoOrganization):
		return msgNoOrganization
	case errors.Is(err, domain.ErrNoCredential):
		return msgNoCredential
	}
	return msgSavedLocally
}

// asInt reads a counter that may have gone through a JSON round trip.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
