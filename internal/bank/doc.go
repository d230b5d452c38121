// Package bank implements the module bank: the registry that discovers,
// describes, caches and lazily loads capability-providing modules.
//
// A Bank is an explicit, constructible object with a refcounted lifecycle.
// Multiple independent subsystems share one bank: each calls Init and End
// symmetrically, and the registry is drained exactly once, when the last
// reference drops. Discovery happens once per activation through
// LoadPlugins, which registers static modules and scans the configured
// search paths; consumers then query by capability and force a module fully
// into memory with Map on first real use.
//
// Two locks guard disjoint state by design. The lifecycle mutex serializes
// Init, LoadPlugins, End and all registry mutation, and is held across the
// entire discovery phase. The narrower map mutex guards the mapped-state
// transitions of individual modules, so a long scan never blocks consumers
// of already-discovered modules.
package bank
