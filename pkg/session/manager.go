package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

// slot serializes the callers of one session. users counts the goroutines
// holding or waiting for mu; the slot is dropped when it reaches zero.
type slot struct {
	mu    sync.Mutex
	users int
}

// Manager runs every read-modify-write of a session under that session's
// lock, so two inputs for the same session never interleave while different
// sessions proceed in parallel.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex // guards slots
	slots map[string]*slot

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// Option configures the Manager.
type Option func(*Manager)

// WithLocker adds a cross-replica lock taken inside the local one.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger sets where lock release failures are reported.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager returns a Manager persisting sessions in store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		slots:   make(map[string]*slot),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) join(sessionID string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[sessionID]
	if !ok {
		s = &slot{}
		m.slots[sessionID] = s
	}
	s.users++
	return s
}

func (m *Manager) leave(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[sessionID]
	if !ok {
		return
	}
	if s.users--; s.users <= 0 {
		delete(m.slots, sessionID)
	}
}

// Load reads a session. It fails with domain.ErrSessionNotFound for unknown IDs.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// LoadOrStart returns the stored session, or builds one with start and saves
// it before anyone else can claim the ID. created is true in the second case.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string, start func(context.Context) (*domain.State, error)) (state *domain.State, created bool, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("load session %s: %w", sessionID, err)
		}

		if state, err = start(ctx); err != nil {
			return fmt.Errorf("start session %s: %w", sessionID, err)
		}
		if err := m.store.Save(ctx, sessionID, state); err != nil {
			return fmt.Errorf("save new session %s: %w", sessionID, err)
		}
		created = true
		return nil
	})
	return state, created, err
}

// Update loads a session, applies fn and saves the result, all under the
// session lock. Nothing is saved when fn fails.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *domain.State) (*domain.State, error)) (*domain.State, error) {
	var next *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		next, err = fn(ctx, current)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, sessionID, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Save overwrites a session.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete forgets a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns the stored session IDs. It takes no lock.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store exposes the backing store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock runs fn while this process, and every replica sharing the
// locker, holds sessionID exclusively.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	s := m.join(sessionID)
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		m.leave(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("lock session %s: %w", sessionID, err)
		}
		defer func() {
			// The caller's ctx may already be done; the release must still go out.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("session lock not released, waiting for ttl",
					"session_id", sessionID, "ttl", m.lockTTL, "err", err)
			}
		}()
	}

	return fn(ctx)
}
