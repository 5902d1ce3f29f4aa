// Package session guards onboarding sessions while they are read, advanced
// and written back. A per-session mutex keeps one replica consistent; an
// optional DistributedLocker extends that to replicas sharing a store.
package session
