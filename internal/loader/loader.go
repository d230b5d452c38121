package loader

import (
	"github.com/dshills/modbank/internal/module"
)

// Loader maps loadable units into the process and describes them.
type Loader interface {
	// Match reports whether filename follows the backend's loadable-module
	// naming convention.
	Match(filename string) bool

	// LoadFile maps the unit at path into the process. fast trades eager
	// symbol resolution for speed; it is honored by backends that support
	// deferred resolution and ignored otherwise.
	LoadFile(path string, fast bool) (module.Handle, error)

	// Describe resolves the unit's entry point and runs it, producing a
	// descriptor. The caller owns the handle either way: on failure it must
	// release the handle and discard the half-built descriptor.
	Describe(h module.Handle) (*module.Plugin, error)
}

// Open loads and describes the unit at path in one step. On success the
// returned descriptor is mapped (its handle is live) and carries the backing
// file path. On failure no trace of the attempt remains: the handle, if one
// was obtained, has been released.
func Open(l Loader, path string, fast bool) (*module.Plugin, error) {
	h, err := l.LoadFile(path, fast)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	p, err := l.Describe(h)
	if err != nil {
		h.Close()
		return nil, &DescribeError{Path: path, Err: err}
	}

	p.Path = path
	p.Module().SetFilename(path)
	p.Module().MarkMapped(h)
	return p, nil
}
