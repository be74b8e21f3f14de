package resolver

import (
	"errors"
	"fmt"
)

// ErrIdentityNotFound is returned by identity lookups that do not know an application.
var ErrIdentityNotFound = errors.New("application identity not found")

// IdentityResolutionError reports that the primary application identity could not be resolved.
type IdentityResolutionError struct {
	Identity string
	Err      error
}

func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve application %q: %v", e.Identity, e.Err)
}

func (e *IdentityResolutionError) Unwrap() error {
	return e.Err
}

// MissingContainerError reports an expected supplemental container that does
// not exist as a regular file. Split packaging never completed, so any scan
// would under-report classes.
type MissingContainerError struct {
	Path  string
	Index int
}

func (e *MissingContainerError) Error() string {
	return fmt.Sprintf("missing extracted secondary container #%d '%s'", e.Index, e.Path)
}
