package loader

import (
	"fmt"
	"plugin"
	"runtime"
	"strings"

	"github.com/dshills/modbank/internal/module"
)

// GoEntryName is the exported symbol a Go plugin module must provide. The
// symbol's type must be func(*module.Builder) error (or a variable of that
// type).
const GoEntryName = "ModbankEntry"

// goPrefix and goSuffix define the shared-object naming convention:
// lib<name>_plugin.<ext> with the platform loadable-object extension.
const (
	goPrefix = "lib"
	goSuffix = "_plugin"
)

// GoLoader loads modules built as Go plugins (-buildmode=plugin).
//
// The runtime cannot unload a Go plugin, so every module this backend
// produces is marked resident. fast is accepted and ignored: the Go plugin
// runtime has no deferred resolution mode.
type GoLoader struct{}

// NewGoLoader creates the Go plugin loader backend.
func NewGoLoader() *GoLoader {
	return &GoLoader{}
}

// Match reports whether filename looks like a Go plugin module.
func (l *GoLoader) Match(filename string) bool {
	ext := loadableExt()
	suffix := goSuffix + ext
	return len(filename) > len(goPrefix)+len(suffix) &&
		strings.HasPrefix(filename, goPrefix) &&
		strings.HasSuffix(filename, suffix)
}

// LoadFile opens the shared object at path.
func (l *GoLoader) LoadFile(path string, _ bool) (module.Handle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &goHandle{p: p, path: path}, nil
}

// Describe resolves ModbankEntry and runs it.
func (l *GoLoader) Describe(h module.Handle) (*module.Plugin, error) {
	gh, ok := h.(*goHandle)
	if !ok {
		return nil, ErrBadHandle
	}

	sym, err := gh.p.Lookup(GoEntryName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEntry, GoEntryName)
	}

	var entry module.EntryFunc
	switch fn := sym.(type) {
	case func(*module.Builder) error:
		entry = fn
	case *module.EntryFunc:
		entry = *fn
	default:
		return nil, fmt.Errorf("%w: %s has unexpected type %T", ErrNoEntry, GoEntryName, sym)
	}

	p, err := module.Describe(entry)
	if err != nil {
		return nil, err
	}

	// Go plugins stay in memory until process exit.
	p.Module().MarkResident()
	return p, nil
}

// loadableExt returns the platform's loadable-object extension.
func loadableExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// goHandle is the live form of an opened Go plugin. Go plugins cannot be
// unloaded; Close only drops the reference.
type goHandle struct {
	p    *plugin.Plugin
	path string
}

// Lookup resolves an exported symbol in the plugin.
func (h *goHandle) Lookup(name string) (any, error) {
	if h.p == nil {
		return nil, ErrHandleClosed
	}
	sym, err := h.p.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
	}
	return sym, nil
}

// Close drops the plugin reference.
func (h *goHandle) Close() error {
	h.p = nil
	return nil
}
