package module

// Handle is the in-memory form of a module's backing loadable unit.
// A mapped module holds a live handle; a described-only module holds none.
type Handle interface {
	// Lookup resolves a named symbol inside the loaded unit.
	Lookup(name string) (any, error)

	// Close releases the loaded unit.
	Close() error
}

// Module is one capability-providing unit.
//
// A Module is either the top-level module of its Plugin or one of the
// top-level module's submodules. Submodules share the parent's load state:
// Mapped, Handle, MarkMapped and MarkResident all operate on the top-level
// module regardless of which link in the chain they are called on.
type Module struct {
	name        string
	shortname   string
	description string
	capability  string
	score       int
	shortcuts   []string

	// filename is the absolute path of the backing file, empty for static
	// modules.
	filename string

	// unloadable is false for static modules and for modules that registered
	// callbacks; those stay resident until process exit.
	unloadable bool

	options    []Option
	submodules []*Module
	parent     *Module
	plugin     *Plugin

	// mapped and handle are meaningful on the top-level module only.
	mapped bool
	handle Handle
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Shortname returns the short display name, falling back to the module name.
func (m *Module) Shortname() string {
	if m.shortname != "" {
		return m.shortname
	}
	return m.name
}

// Description returns the human-readable description.
func (m *Module) Description() string {
	return m.description
}

// Capability returns the capability the module claims to provide.
func (m *Module) Capability() string {
	return m.capability
}

// Score returns the module's priority score for its capability.
func (m *Module) Score() int {
	return m.score
}

// Shortcuts returns the module's alias names.
func (m *Module) Shortcuts() []string {
	return append([]string(nil), m.shortcuts...)
}

// Filename returns the absolute path of the backing file, or "" for modules
// with no file behind them.
func (m *Module) Filename() string {
	return m.top().filename
}

// Unloadable reports whether the module may be unmapped after use.
func (m *Module) Unloadable() bool {
	return m.top().unloadable
}

// Options returns a copy of the module's configuration options.
func (m *Module) Options() []Option {
	return append([]Option(nil), m.options...)
}

// Submodules returns the module's submodule chain in registration order.
func (m *Module) Submodules() []*Module {
	return append([]*Module(nil), m.submodules...)
}

// Plugin returns the owning Plugin.
func (m *Module) Plugin() *Plugin {
	return m.top().plugin
}

// Provides reports whether the module itself claims the capability.
func (m *Module) Provides(capability string) bool {
	return m.capability == capability
}

// Matches reports whether name equals the module name or one of its
// shortcuts.
func (m *Module) Matches(name string) bool {
	if m.name == name {
		return true
	}
	for _, s := range m.shortcuts {
		if s == name {
			return true
		}
	}
	return false
}

// Mapped reports whether the module's code is resident in memory and
// callable, as opposed to merely described from cache.
func (m *Module) Mapped() bool {
	return m.top().mapped
}

// Handle returns the live handle of a mapped module, or nil.
func (m *Module) Handle() Handle {
	return m.top().handle
}

// HasCallbackOptions reports whether the module or any of its submodules
// declares a callback-bearing option.
func (m *Module) HasCallbackOptions() bool {
	for _, o := range m.options {
		if o.HasCallback() {
			return true
		}
	}
	for _, sub := range m.submodules {
		if sub.HasCallbackOptions() {
			return true
		}
	}
	return false
}

// ResolveOptions resolves every callback-bearing option of the module and
// its submodules through resolve. Loaders call this on full (non-fast) loads;
// a described-only or fast-loaded module keeps nil callbacks.
func (m *Module) ResolveOptions(resolve func(callbackName string) (ChoicesFunc, error)) error {
	for i := range m.options {
		if !m.options[i].HasCallback() {
			continue
		}
		fn, err := resolve(m.options[i].CallbackName)
		if err != nil {
			return err
		}
		m.options[i].Callback = fn
	}
	for _, sub := range m.submodules {
		if err := sub.ResolveOptions(resolve); err != nil {
			return err
		}
	}
	return nil
}

// SetFilename records the absolute path of the backing file. A cache hit
// refreshes the path this way: the file may have moved without changing.
func (m *Module) SetFilename(path string) {
	m.top().filename = path
}

// MarkMapped transitions the module (and therefore its whole chain) to the
// mapped state, adopting the given handle.
func (m *Module) MarkMapped(h Handle) {
	t := m.top()
	t.mapped = true
	t.handle = h
}

// MarkUnmapped drops the mapped state and the handle. The caller is
// responsible for closing the handle first.
func (m *Module) MarkUnmapped() {
	t := m.top()
	t.mapped = false
	t.handle = nil
}

// MarkResident flags the module as non-unloadable: it will never be unmapped
// at bank teardown. Used for static modules and for modules whose callbacks
// must stay valid until process exit.
func (m *Module) MarkResident() {
	m.top().unloadable = false
}

// top returns the top-level module of the chain.
func (m *Module) top() *Module {
	if m.parent != nil {
		return m.parent
	}
	return m
}
