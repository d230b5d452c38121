package bank

import "errors"

var (
	// ErrNotInitialized is returned when an operation requires a live bank
	// and the usage count is zero.
	ErrNotInitialized = errors.New("bank not initialized")

	// ErrNoBackingFile is returned by Map for a module with no originating
	// plugin file, such as a module whose cache entry lost its path.
	ErrNoBackingFile = errors.New("module has no backing file")

	// ErrLoadingDisabled is returned by Map when the bank was built without
	// a loader and the target module is not already in memory.
	ErrLoadingDisabled = errors.New("dynamic loading disabled")
)
