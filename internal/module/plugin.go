package module

// EntryFunc is the well-known entry point of a loadable unit. It populates
// one top-level module (and optionally a submodule chain) by registering
// capabilities, scores and configuration options against the Builder.
type EntryFunc func(*Builder) error

// Plugin is the discovery-time envelope around one file (or one static
// linkage) producing one top-level Module.
//
// RelPath, Mtime and Size together form the cache identity: a cached
// descriptor is valid only while mtime and size both match the file on disk.
type Plugin struct {
	// RelPath is the path relative to the scanned base directory. It is the
	// cache key component. Empty for static modules.
	RelPath string

	// Path is the absolute path of the backing file. Empty for static
	// modules.
	Path string

	// Mtime is the backing file's modification time in Unix seconds.
	Mtime int64

	// Size is the backing file's size in bytes.
	Size int64

	mod *Module
}

// Module returns the plugin's top-level module.
func (p *Plugin) Module() *Module {
	return p.mod
}

// Describe runs the entry function against a fresh Builder and returns the
// resulting descriptor. The descriptor is described-only: the caller marks it
// mapped once the backing unit is actually resident.
func Describe(entry EntryFunc) (*Plugin, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	p := &Plugin{mod: &Module{unloadable: true}}
	p.mod.plugin = p

	b := &Builder{plugin: p, mod: p.mod}
	if err := entry(b); err != nil {
		return nil, err
	}
	if b.err != nil {
		return nil, b.err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// validate checks the built descriptor for structural problems.
func (p *Plugin) validate() error {
	if p.mod.name == "" {
		return ErrMissingName
	}
	for _, sub := range p.mod.submodules {
		if sub.name == "" {
			return ErrMissingName
		}
	}
	return nil
}

// Merge adopts the resolved state of a freshly loaded duplicate descriptor
// into this plugin in place: the handle, the mapped state, and any resolved
// option callbacks. Submodules are matched by position and options by name;
// anything the fresh descriptor no longer declares is left untouched. The
// fresh descriptor must be discarded by the caller afterwards.
func (p *Plugin) Merge(fresh *Plugin) {
	if fresh == nil || fresh.mod == nil {
		return
	}

	p.mod.mergeResolved(fresh.mod)
	p.mod.handle = fresh.mod.handle
	p.mod.mapped = fresh.mod.mapped
	if !fresh.mod.unloadable {
		p.mod.unloadable = false
	}
}

// mergeResolved copies resolved option callbacks from fresh into m, then
// recurses over submodules by position.
func (m *Module) mergeResolved(fresh *Module) {
	for i := range m.options {
		if !m.options[i].HasCallback() {
			continue
		}
		for j := range fresh.options {
			if fresh.options[j].Name == m.options[i].Name {
				m.options[i].Callback = fresh.options[j].Callback
				break
			}
		}
	}
	for i, sub := range m.submodules {
		if i >= len(fresh.submodules) {
			break
		}
		sub.mergeResolved(fresh.submodules[i])
	}
}
