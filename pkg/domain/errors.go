package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a jump targets a stage that is not
// applicable for the session. It indicates a host wiring bug.
var ErrInvalidTransition = errors.New("invalid stage transition")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when a host operation targets a completed or exited session.
var ErrSessionClosed = errors.New("session closed")

// ErrUnknownEffect is returned when a settlement does not match a pending effect.
var ErrUnknownEffect = errors.New("unknown side effect")

// ErrUnknownAction is returned when an action token cannot be parsed.
var ErrUnknownAction = errors.New("unknown action token")

// ErrSideEffectUnreachable is returned when the gateway cannot be invoked at
// all (no organization, no credential, or no gateway configured).
var ErrSideEffectUnreachable = errors.New("side effect unreachable")

// ErrNoOrganization and ErrNoCredential name the prerequisite a session
// lacks. Both match ErrSideEffectUnreachable.
var (
	ErrNoOrganization = fmt.Errorf("no organization: %w", ErrSideEffectUnreachable)
	ErrNoCredential   = fmt.Errorf("no credential: %w", ErrSideEffectUnreachable)
)

// ErrSessionConflict is returned when an existing session is resumed by a
// different actor than the one that started it.
var ErrSessionConflict = errors.New("session belongs to another actor")
