package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound is matched by every NotFoundError.
	ErrModuleNotFound = errors.New("module not found")

	// ErrUnresolvedRequirement is returned by Enable under the
	// guard-requires flag.
	ErrUnresolvedRequirement = errors.New("unresolved module requirement")

	ErrInvalidDirection = errors.New("invalid direction")
)

// NotFoundError names the module that could not be resolved.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("module [%s] does not exist", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrModuleNotFound
}
