package ports

import (
	"context"
	"time"
)

// UnlockFunc gives a session lock back.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one session across onboard replicas
// that share a store. The session manager takes it around every
// load-modify-save cycle, after its in-process mutex.
type DistributedLocker interface {
	// Lock waits until sessionID is free or ctx ends. The lock lapses on its
	// own after ttl so a crashed replica cannot wedge the session; callers
	// must still invoke the returned UnlockFunc.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
