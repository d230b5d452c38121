package loader

import (
	"errors"
	"fmt"
)

// Loader errors.
var (
	// ErrNoEntry is returned when a unit does not expose the entry point.
	ErrNoEntry = errors.New("loader: entry point not found")

	// ErrUnresolvedSymbol is returned when full-mode loading cannot resolve a
	// symbol the unit's registration named.
	ErrUnresolvedSymbol = errors.New("loader: unresolved symbol")

	// ErrBadHandle is returned when a handle is passed to a loader that did
	// not produce it.
	ErrBadHandle = errors.New("loader: handle does not belong to this loader")

	// ErrHandleClosed is returned when operating on a released handle.
	ErrHandleClosed = errors.New("loader: handle is closed")

	// ErrNoBackend is returned by a composite loader when no backend
	// recognizes the file.
	ErrNoBackend = errors.New("loader: no backend matches file")
)

// LoadError reports a failure to map a loadable unit into the process:
// missing file, unsupported format, or unresolvable dependencies.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load module %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// DescribeError reports a mapped unit whose entry point is absent or whose
// registration failed. The mapped handle has already been released when this
// is returned.
type DescribeError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DescribeError) Error() string {
	return fmt.Sprintf("cannot describe module %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DescribeError) Unwrap() error {
	return e.Err
}
