package epub

import (
	"errors"
	"fmt"
)

var (
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrNoRootfile        = errors.New("no rootfile reference in container.xml")
)

// StructureError reports a required structural file that is missing or does
// not parse as the expected XML shape. It aborts the whole operation; no
// partial model or output is produced.
type StructureError struct {
	Path   string // archive-internal path of the offending file
	Reason string
	Err    error
}

func (e *StructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("epub structure: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("epub structure: %s: %s", e.Path, e.Reason)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}
