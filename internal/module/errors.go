package module

import "errors"

// Descriptor construction errors.
var (
	// ErrNilEntry is returned when a nil entry function is described.
	ErrNilEntry = errors.New("module: entry function is nil")

	// ErrMissingName is returned when a module is registered without a name.
	ErrMissingName = errors.New("module: module name is required")

	// ErrNestedSubmodule is returned when a submodule declares a submodule of
	// its own. Submodule chains nest exactly one level below the top module.
	ErrNestedSubmodule = errors.New("module: submodules cannot declare submodules")

	// ErrMissingOptionName is returned when an option is added without a name.
	ErrMissingOptionName = errors.New("module: option name is required")
)
