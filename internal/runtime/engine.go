package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/onboard/pkg/catalog"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/google/uuid"
)

// Engine is the core onboarding state machine. It is pure: every call takes
// a state, returns a new one and never performs I/O. Side effects are handed
// back to the caller in the returned Step.
type Engine struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	newID   func() string
	now     func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithIDGenerator overrides how turn and effect IDs are generated.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewEngine creates a new engine over the given catalog. A nil catalog
// selects catalog.Default.
func NewEngine(c *catalog.Catalog, opts ...EngineOption) *Engine {
	if c == nil {
		c = catalog.Default()
	}
	e := &Engine{
		catalog: c,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog exposes the stage catalog the engine runs on.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Start creates the initial state for a session, positioned at the first
// applicable stage with the welcome and introductory prompt appended.
func (e *Engine) Start(ctx context.Context, sessionID string, sc domain.SessionContext) (*domain.Step, error) {
	if !sc.ActorRole.Valid() {
		return nil, fmt.Errorf("cannot start session %s: unsupported role %q", sessionID, sc.ActorRole)
	}
	first, ok := e.catalog.First(sc)
	if !ok {
		return nil, fmt.Errorf("cannot start session %s: no stage applies to role %q", sessionID, sc.ActorRole)
	}

	state := domain.NewState(sessionID, sc, first.ID)
	state.CreatedAt = e.now()

	c := e.begin(ctx, state)
	c.say(msgWelcome)
	c.prompt(first)
	c.step.To = first.ID
	e.emitStageEnter(ctx, state, first.ID)

	e.logger.Debug("session started", "session_id", sessionID, "role", sc.ActorRole, "stage", first.ID)
	return c.finish(), nil
}

// Handle routes one user action. Unrecognized or stale actions never fail:
// they are answered with a generic turn and leave the state untouched.
func (e *Engine) Handle(ctx context.Context, state *domain.State, action domain.Action) (*domain.Step, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot handle action: %w", domain.ErrSessionNotFound)
	}
	c := e.begin(ctx, state)
	c.echo(action)

	if c.state.IsClosed() {
		c.say(msgClosed)
		return c.finish(), nil
	}

	e.route(c, action)
	return c.finish(), nil
}

// Jump moves the cursor directly to stage and re-emits its introductory
// prompt. Data recorded for any stage is kept. Jumping to the current stage
// only re-renders the prompt.
func (e *Engine) Jump(ctx context.Context, state *domain.State, stage domain.StageID) (*domain.Step, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot jump: %w", domain.ErrSessionNotFound)
	}
	if state.IsClosed() {
		return nil, fmt.Errorf("cannot jump to %s: %w", stage, domain.ErrSessionClosed)
	}
	target, err := e.applicable(state, stage)
	if err != nil {
		return nil, err
	}

	c := e.begin(ctx, state)
	if c.state.CurrentStage == target.ID {
		c.prompt(target)
		return c.finish(), nil
	}
	c.moveTo(target)
	return c.finish(), nil
}

// SelectFile hands a file to the given stage. The engine never reads the
// content; it schedules a dry-run validation through the gateway.
func (e *Engine) SelectFile(ctx context.Context, state *domain.State, stage domain.StageID, upload domain.Upload) (*domain.Step, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot select file: %w", domain.ErrSessionNotFound)
	}
	if state.IsClosed() {
		return nil, fmt.Errorf("cannot select file for %s: %w", stage, domain.ErrSessionClosed)
	}
	def, err := e.applicable(state, stage)
	if err != nil {
		return nil, err
	}

	c := e.begin(ctx, state)
	c.heardAt(stage, upload.Name, domain.TurnFile)
	e.onFileSelected(c, def, upload)
	return c.finish(), nil
}

// Settle applies the outcome of a pending effect.
func (e *Engine) Settle(ctx context.Context, state *domain.State, s domain.Settlement) (*domain.Step, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot settle effect: %w", domain.ErrSessionNotFound)
	}
	var effect domain.Effect
	found := false
	for _, pending := range state.Pending {
		if pending.ID == s.EffectID {
			effect, found = pending, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("cannot settle %s: %w", s.EffectID, domain.ErrUnknownEffect)
	}

	c := e.begin(ctx, state)
	delete(c.state.Pending, effect.Stage)
	e.settle(c, effect, s)
	e.emitEffectSettled(ctx, c.state, effect, s)
	return c.finish(), nil
}

// Stages returns the applicable stages for a session context.
func (e *Engine) Stages(sc domain.SessionContext) []domain.Stage {
	return e.catalog.Applicable(sc)
}

// Progress reports the completion fraction of the session.
func (e *Engine) Progress(state *domain.State) float64 {
	if state.Status == domain.StatusCompleted {
		return 1
	}
	return e.catalog.Progress(state.Session, state.CurrentStage)
}

// View projects a state into the sidebar and conversation model shown to
// hosts.
func (e *Engine) View(state *domain.State) *domain.SessionView {
	stages := e.catalog.Applicable(state.Session)
	views := make([]domain.StageView, len(stages))
	for i, s := range stages {
		views[i] = domain.StageView{
			ID:      s.ID,
			Label:   s.Label,
			Icon:    s.Icon,
			Current: s.ID == state.CurrentStage,
			Pending: state.InFlight(s.ID),
			HasData: len(state.Data(s.ID)) > 0,
		}
	}
	turns := state.Turns
	if turns == nil {
		turns = []domain.Turn{}
	}
	return &domain.SessionView{
		SessionID:    state.SessionID,
		Role:         state.Session.ActorRole,
		CurrentStage: state.CurrentStage,
		Status:       state.Status,
		Progress:     e.Progress(state),
		Stages:       views,
		Turns:        turns,
	}
}

func (e *Engine) applicable(state *domain.State, stage domain.StageID) (domain.Stage, error) {
	if !e.catalog.IsApplicable(state.Session, stage) {
		return domain.Stage{}, &InvalidTransitionError{Stage: stage, Role: state.Session.ActorRole}
	}
	def, _ := e.catalog.Lookup(stage)
	return def, nil
}
