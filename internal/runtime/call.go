package runtime

import (
	"context"
	"maps"

	"github.com/aretw0/onboard/pkg/conversation"
	"github.com/aretw0/onboard/pkg/domain"
)

// call is the scratch space of one event being processed. It owns a private
// copy of the state so the caller's snapshot is never mutated.
type call struct {
	e     *Engine
	ctx   context.Context
	state *domain.State
	log   *conversation.Log
	mark  int
	step  *domain.Step
}

func (e *Engine) begin(ctx context.Context, state *domain.State) *call {
	next := state.Snapshot()
	return &call{
		e:     e,
		ctx:   ctx,
		state: next,
		log:   conversation.New(&next.Turns, e.newID, e.now),
		mark:  len(next.Turns),
		step:  &domain.Step{State: next},
	}
}

func (c *call) finish() *domain.Step {
	c.state.UpdatedAt = c.e.now()
	c.step.Turns = c.log.Since(c.mark)
	return c.step
}

func (c *call) current() domain.Stage {
	s, _ := c.e.catalog.Lookup(c.state.CurrentStage)
	return s
}

// say appends a guide turn attributed to the current stage.
func (c *call) say(body string, choices ...domain.Choice) {
	c.log.AppendSystem(c.state.CurrentStage, body, choices...)
}

// sayAt appends a guide turn attributed to a specific stage.
func (c *call) sayAt(stage domain.StageID, body string, choices ...domain.Choice) {
	c.log.AppendSystem(stage, body, choices...)
}

func (c *call) heardAt(stage domain.StageID, body string, kind domain.TurnKind) {
	c.log.AppendUser(stage, body, kind)
}

// echo records the user's input. Action tokens are shown with the label of
// the choice that offered them.
func (c *call) echo(a domain.Action) {
	body := a.Text
	if a.Kind != domain.ActionFreeText {
		body = c.labelFor(a.Token())
	}
	c.heardAt(c.state.CurrentStage, body, domain.TurnText)
}

func (c *call) labelFor(token string) string {
	turns := c.state.Turns
	for i := len(turns) - 1; i >= 0; i-- {
		for _, ch := range turns[i].Choices {
			if ch.Token == token {
				return ch.Label
			}
		}
	}
	return token
}

// prompt re-emits the introductory prompt of a stage.
func (c *call) prompt(s domain.Stage) {
	c.sayAt(s.ID, s.Prompt, s.Choices...)
}

// moveTo points the cursor at target and emits its prompt.
func (c *call) moveTo(target domain.Stage) {
	from := c.state.CurrentStage
	if from == target.ID {
		c.prompt(target)
		return
	}
	c.e.emitStageLeave(c.ctx, c.state, from)

	c.state.CurrentStage = target.ID
	c.state.History = append(c.state.History, target.ID)
	if c.step.From == "" {
		c.step.From = from
	}
	c.step.To = target.ID

	c.e.emitStageEnter(c.ctx, c.state, target.ID)
	c.e.logger.Debug("stage transition", "session_id", c.state.SessionID, "from", from, "to", target.ID)
	c.prompt(target)
}

// advance moves to the next applicable stage. The last stage has no
// successor and advancing from it is a no-op.
func (c *call) advance() {
	next, ok := c.e.catalog.Next(c.state.Session, c.state.CurrentStage)
	if !ok {
		return
	}
	c.moveTo(next)
}

// advanceFrom advances only while the cursor is still on stage and the
// session is open.
func (c *call) advanceFrom(stage domain.StageID) {
	if c.state.CurrentStage == stage && !c.state.IsClosed() {
		c.advance()
	}
}

// schedule registers an effect as pending for its stage. It returns false
// when the stage already has one in flight.
func (c *call) schedule(effect domain.Effect) bool {
	if c.state.InFlight(effect.Stage) {
		c.sayAt(effect.Stage, msgInFlight)
		return false
	}
	effect.ID = c.e.newID()
	effect.ScheduledAt = c.e.now()
	c.state.Pending[effect.Stage] = effect
	c.step.Effect = &effect
	c.e.emitEffectScheduled(c.ctx, c.state, effect)
	return true
}

// record merges data into a stage payload, last write wins per key.
func (c *call) record(stage domain.StageID, data map[string]any) {
	current := c.state.StageData[stage]
	if current == nil {
		current = make(map[string]any, len(data))
	}
	maps.Copy(current, data)
	c.state.StageData[stage] = current
}
