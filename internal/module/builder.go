package module

// Builder is the registration surface handed to a loadable unit's entry
// function. Setter calls configure the module the builder points at;
// AddSubmodule returns a nested builder for the next link of the chain.
//
// Registration problems are recorded and surfaced by Describe rather than
// returned from each call, so entry functions can register fluently.
type Builder struct {
	plugin *Plugin
	mod    *Module

	// rootRef points at the top-level builder on submodule builders; the
	// top-level builder records the first registration error for Describe.
	rootRef *Builder
	err     error
}

// SetName sets the module name. Required.
func (b *Builder) SetName(name string) {
	b.mod.name = name
}

// SetShortname sets the short display name.
func (b *Builder) SetShortname(name string) {
	b.mod.shortname = name
}

// SetDescription sets the human-readable description.
func (b *Builder) SetDescription(text string) {
	b.mod.description = text
}

// SetCapability declares the capability the module provides and its priority
// score.
func (b *Builder) SetCapability(capability string, score int) {
	b.mod.capability = capability
	b.mod.score = score
}

// AddShortcut registers an alias name for the module.
func (b *Builder) AddShortcut(name string) {
	b.mod.shortcuts = append(b.mod.shortcuts, name)
}

// SetUnloadable declares whether the module may be unmapped after use.
// File-backed modules default to unloadable.
func (b *Builder) SetUnloadable(ok bool) {
	if b.mod.parent != nil {
		// Load state is shared with the parent.
		b.mod.top().unloadable = ok
		return
	}
	b.mod.unloadable = ok
}

// AddOption registers a configuration option.
func (b *Builder) AddOption(o Option) {
	if o.Name == "" {
		b.fail(ErrMissingOptionName)
		return
	}
	b.mod.options = append(b.mod.options, o)
}

// AddSubmodule appends a submodule to the top-level module's chain and
// returns a builder for it. Submodules cannot declare submodules of their
// own.
func (b *Builder) AddSubmodule() *Builder {
	if b.mod.parent != nil {
		b.fail(ErrNestedSubmodule)
		return b
	}

	sub := &Module{parent: b.mod}
	b.mod.submodules = append(b.mod.submodules, sub)
	return &Builder{plugin: b.plugin, mod: sub, rootRef: b.rootBuilder()}
}

// rootBuilder returns the builder holding the recorded error.
func (b *Builder) rootBuilder() *Builder {
	if b.rootRef != nil {
		return b.rootRef
	}
	return b
}

// fail records the first registration error.
func (b *Builder) fail(err error) {
	r := b.rootBuilder()
	if r.err == nil {
		r.err = err
	}
}
