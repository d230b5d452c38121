package loader

import (
	"path/filepath"

	"github.com/dshills/modbank/internal/module"
)

// multiLoader fans one Loader out over several backends. The first backend
// whose Match accepts the filename owns the file.
type multiLoader struct {
	backends []Loader
}

// NewMulti combines backends into a single loader. Backend order decides
// ties, so more specific filename conventions go first.
func NewMulti(backends ...Loader) Loader {
	return &multiLoader{backends: backends}
}

func (m *multiLoader) Match(filename string) bool {
	return m.pick(filename) != nil
}

func (m *multiLoader) pick(filename string) Loader {
	for _, b := range m.backends {
		if b.Match(filename) {
			return b
		}
	}
	return nil
}

func (m *multiLoader) LoadFile(path string, fast bool) (module.Handle, error) {
	backend := m.pick(filepath.Base(path))
	if backend == nil {
		return nil, ErrNoBackend
	}
	h, err := backend.LoadFile(path, fast)
	if err != nil {
		return nil, err
	}
	return &ownedHandle{Handle: h, owner: backend}, nil
}

func (m *multiLoader) Describe(h module.Handle) (*module.Plugin, error) {
	oh, ok := h.(*ownedHandle)
	if !ok {
		return nil, ErrBadHandle
	}
	return oh.owner.Describe(oh.Handle)
}

// ownedHandle remembers which backend produced a handle so Describe can be
// routed back to it.
type ownedHandle struct {
	module.Handle
	owner Loader
}
