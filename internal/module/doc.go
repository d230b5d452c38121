// Package module defines the descriptor model for the module bank.
//
// A Plugin is the discovery-time envelope around one loadable file (or one
// static linkage). It owns exactly one top-level Module, which may own an
// ordered chain of submodules. Each Module claims one capability with a
// signed priority score; higher scores win when several modules provide the
// same capability.
//
// Descriptors are produced by running an entry function against a Builder.
// The entry function is the well-known entry point every loadable unit
// exposes; static (built-in) modules use the same mechanism with a plain Go
// function and no file behind it.
package module
