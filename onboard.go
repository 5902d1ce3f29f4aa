package onboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/catalog"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/session"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the onboarding library.
// It wraps the internal runtime with persistence, per-session locking and
// side-effect execution, and provides a simplified API for hosts.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	gateway  ports.Gateway
	streams  *streams

	catalog     *catalog.Catalog
	store       ports.StateStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	newID       func() string
	updateMode  bool
	runtimeOpts []runtime.EngineOption

	// effects run detached from the request that scheduled them.
	effects context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	// mu guards closed so no effect is added to wg once Close is waiting.
	mu     sync.Mutex
	closed bool
}

var _ ports.SessionEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog replaces the default stage catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables cross-process session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the lease used with a distributed locker.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithGateway sets the backend used to run side effects. Without one,
// every effect settles as unreachable.
func WithGateway(gw ports.Gateway) Option {
	return func(e *Engine) {
		e.gateway = gw
	}
}

// WithUpdateMode makes committed imports update existing rows.
func WithUpdateMode(enabled bool) Option {
	return func(e *Engine) {
		e.updateMode = enabled
	}
}

// WithIDGenerator overrides the generator used for sessions, turns and effects.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(fn))
	}
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(fn))
	}
}

// New initializes a new onboarding Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.catalog == nil {
		eng.catalog = catalog.Default()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.newID == nil {
		eng.newID = uuid.NewString
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.catalog, runtimeOpts...)

	eng.streams = newStreams(eng.logger)
	eng.effects, eng.stop = context.WithCancel(context.Background())
	return eng
}

// Start opens a session, or resumes it when sessionID already exists. An
// empty sessionID gets a generated one. Resuming requires sc to name the
// actor that started the session, otherwise ErrSessionConflict is returned.
func (e *Engine) Start(ctx context.Context, sessionID string, sc domain.SessionContext) (*domain.SessionView, error) {
	if sessionID == "" {
		sessionID = e.newID()
	}
	state, created, err := e.sessions.LoadOrStart(ctx, sessionID, func(ctx context.Context) (*domain.State, error) {
		step, err := e.runtime.Start(ctx, sessionID, sc)
		if err != nil {
			return nil, err
		}
		return step.State, nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		e.logger.Info("session started", "session_id", sessionID, "role", sc.ActorRole)
		e.streams.broadcast(domain.Diff(nil, state))
	} else if !state.Session.SameActor(sc) {
		e.logger.Warn("session resumed by another actor", "session_id", sessionID,
			"role", sc.ActorRole, "organization_id", sc.OrganizationID)
		return nil, fmt.Errorf("resume %s: %w", sessionID, domain.ErrSessionConflict)
	}
	return e.runtime.View(state), nil
}

// Input routes one user event. token is a choice token; when empty, text is
// treated as free text. Unknown tokens are answered softly, never rejected.
func (e *Engine) Input(ctx context.Context, sessionID, token, text string) (*domain.SessionView, error) {
	action := domain.FreeText(text)
	if token != "" {
		var err error
		action, err = domain.ParseActionFor(token, e.catalog.Has)
		if err != nil {
			e.logger.Debug("unparsed action token", "session_id", sessionID, "err", err)
		}
		if action.Kind == domain.ActionFreeText {
			action.Text = text
		}
	}
	return e.view(e.apply(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.Step, error) {
		return e.runtime.Handle(ctx, s, action)
	}))
}

// Jump moves the cursor to an applicable stage.
func (e *Engine) Jump(ctx context.Context, sessionID string, stage domain.StageID) (*domain.SessionView, error) {
	return e.view(e.apply(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.Step, error) {
		return e.runtime.Jump(ctx, s, stage)
	}))
}

// SelectFile hands an upload to a stage, scheduling its validation.
func (e *Engine) SelectFile(ctx context.Context, sessionID string, stage domain.StageID, upload domain.Upload) (*domain.SessionView, error) {
	return e.view(e.apply(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.Step, error) {
		return e.runtime.SelectFile(ctx, s, stage, upload)
	}))
}

// Handle is the lower-level variant of Input: it routes a typed action and
// returns the raw step, including the exit signal.
func (e *Engine) Handle(ctx context.Context, sessionID string, action domain.Action) (*domain.Step, error) {
	return e.apply(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.Step, error) {
		return e.runtime.Handle(ctx, s, action)
	})
}

// View returns the projection of a stored session.
func (e *Engine) View(ctx context.Context, sessionID string) (*domain.SessionView, error) {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return e.runtime.View(state), nil
}

// Load returns the full stored state of a session.
func (e *Engine) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Delete removes a session.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// List returns the IDs of all stored sessions.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Stages returns the stages applicable to sc, in order.
func (e *Engine) Stages(sc domain.SessionContext) []domain.Stage {
	return e.runtime.Stages(sc)
}

// Catalog returns the stage catalog the engine runs.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Subscribe streams state diffs for a session until cancel is called.
func (e *Engine) Subscribe(sessionID string) (<-chan *domain.StateDiff, func()) {
	return e.streams.subscribe(sessionID)
}

// Wait blocks until every effect scheduled so far has settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels in-flight effects and waits for their settlements.
// Effects scheduled after Close settle at once as unreachable.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.stop()
	e.wg.Wait()
	return nil
}

func (e *Engine) view(step *domain.Step, err error) (*domain.SessionView, error) {
	if err != nil {
		return nil, err
	}
	return e.runtime.View(step.State), nil
}

// apply runs fn under the session lock, persists the result, broadcasts the
// diff and dispatches the scheduled effect, if any.
func (e *Engine) apply(ctx context.Context, sessionID string, fn func(context.Context, *domain.State) (*domain.Step, error)) (*domain.Step, error) {
	var (
		step *domain.Step
		prev *domain.State
	)
	_, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.State) (*domain.State, error) {
		prev = current
		var err error
		step, err = fn(ctx, current)
		if err != nil {
			return nil, err
		}
		return step.State, nil
	})
	if err != nil {
		return nil, err
	}

	if diff := domain.Diff(prev, step.State); diff != nil {
		e.streams.broadcast(diff)
	}
	if step.Effect != nil {
		e.dispatch(sessionID, step.State.Session, *step.Effect)
	}
	return step, nil
}

func (e *Engine) dispatch(sessionID string, sc domain.SessionContext, effect domain.Effect) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.settle(sessionID, effect, domain.Settlement{
			EffectID: effect.ID,
			Err:      fmt.Errorf("engine closed: %w", domain.ErrSideEffectUnreachable),
		})
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.settle(sessionID, effect, e.execute(e.effects, sc, effect))
	}()
}

// settle feeds a settlement back into the session. It runs even when the
// engine is closing so the in-flight marker is released.
func (e *Engine) settle(sessionID string, effect domain.Effect, settlement domain.Settlement) {
	ctx := context.WithoutCancel(e.effects)
	_, err := e.apply(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.Step, error) {
		return e.runtime.Settle(ctx, s, settlement)
	})
	if err != nil {
		e.logger.Error("failed to settle effect",
			"session_id", sessionID, "effect_id", effect.ID, "kind", effect.Kind, "err", err)
	}
}

func (e *Engine) execute(ctx context.Context, sc domain.SessionContext, effect domain.Effect) domain.Settlement {
	settlement := domain.Settlement{EffectID: effect.ID}
	if e.gateway == nil {
		settlement.Err = fmt.Errorf("no gateway configured: %w", domain.ErrSideEffectUnreachable)
		return settlement
	}

	switch effect.Kind {
	case domain.EffectSendInvitations:
		batch, err := e.gateway.SendInvitations(ctx, sc, effect.Recipients)
		if err != nil {
			settlement.Err = err
			break
		}
		settlement.Batch = &batch

	case domain.EffectValidateImport, domain.EffectCommitImport:
		if effect.Upload == nil {
			settlement.Err = errors.New("import effect without upload")
			break
		}
		summary, err := e.gateway.Import(ctx, domain.ImportRequest{
			Kind:           effect.Upload.Kind,
			OrganizationID: sc.OrganizationID,
			AuthToken:      sc.AuthToken,
			CreatedBy:      sc.UserID,
			File:           *effect.Upload,
			DryRun:         effect.Kind == domain.EffectValidateImport,
			UpdateMode:     e.updateMode,
		})
		if err != nil {
			settlement.Err = err
			break
		}
		settlement.Import = &summary

	default:
		settlement.Err = fmt.Errorf("unsupported effect kind %q", effect.Kind)
	}

	if settlement.Err != nil {
		e.logger.Warn("effect failed", "effect_id", effect.ID, "kind", effect.Kind, "err", settlement.Err)
	}
	return settlement
}
