package runtime

import (
	"fmt"

	"github.com/aretw0/onboard/pkg/domain"
)

// InvalidTransitionError is returned when a host asks for a stage that is not
// part of the session's flow.
type InvalidTransitionError struct {
	Stage domain.StageID
	Role  domain.Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("stage %q is not applicable for role %q", e.Stage, e.Role)
}

func (e *InvalidTransitionError) Unwrap() error {
	return domain.ErrInvalidTransition
}
