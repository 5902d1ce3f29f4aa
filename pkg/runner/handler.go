package runner

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
type IOHandler interface {
	// Output presents newly appended turns. Choices of the latest system
	// turn are numbered so the user can answer with the number.
	Output(ctx context.Context, turns []domain.Turn) error

	// Input reads one line (or one continued block) from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. command errors),
	// distinct from conversation turns.
	SystemOutput(ctx context.Context, msg string) error
}
