// Package loader maps loadable units into the process and turns them into
// module descriptors.
//
// A Loader backend defines the platform naming convention for its units,
// maps a file into memory, resolves the well-known entry point and runs it
// to populate a descriptor. Two backends exist: the Lua backend executes
// sandboxed Lua files through gopher-lua, and the Go backend opens shared
// objects built with -buildmode=plugin.
//
// Loading supports a fast mode that defers symbol resolution: option
// callbacks named during registration are not resolved until the module is
// loaded in full mode. Fast mode is used during discovery, when the bank only
// needs the description; full mode is used when a consumer actually maps the
// module.
package loader
