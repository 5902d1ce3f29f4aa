package runtime_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/require"
)

var (
	orgAdmin = domain.SessionContext{
		ActorRole:       domain.RoleOrgAdmin,
		OrganizationID:  "org-1",
		IsAuthenticated: true,
		AuthToken:       "token",
	}
	platformAdmin = domain.SessionContext{
		ActorRole:       domain.RolePlatformAdmin,
		IsAuthenticated: true,
		AuthToken:       "token",
	}
)

func newTestEngine(opts ...runtime.EngineOption) *runtime.Engine {
	n := 0
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	base := []runtime.EngineOption{
		runtime.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		runtime.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	}
	return runtime.NewEngine(nil, append(base, opts...)...)
}

func start(t *testing.T, e *runtime.Engine, sc domain.SessionContext) *domain.State {
	t.Helper()
	step, err := e.Start(context.Background(), "sess-1", sc)
	require.NoError(t, err)
	return step.State
}

func handle(t *testing.T, e *runtime.Engine, state *domain.State, token string) *domain.Step {
	t.Helper()
	action, _ := domain.ParseAction(token)
	step, err := e.Handle(context.Background(), state, action)
	require.NoError(t, err)
	return step
}

func say(t *testing.T, e *runtime.Engine, state *domain.State, text string) *domain.Step {
	t.Helper()
	step, err := e.Handle(context.Background(), state, domain.FreeText(text))
	require.NoError(t, err)
	return step
}

func settle(t *testing.T, e *runtime.Engine, state *domain.State, s domain.Settlement) *domain.Step {
	t.Helper()
	step, err := e.Settle(context.Background(), state, s)
	require.NoError(t, err)
	return step
}

func lastTurn(state *domain.State) domain.Turn {
	return state.Turns[len(state.Turns)-1]
}

// withoutLog blanks the fields an unrecognized input is allowed to touch.
func withoutLog(s *domain.State) *domain.State {
	c := s.Snapshot()
	c.Turns = nil
	c.UpdatedAt = time.Time{}
	return c
}
