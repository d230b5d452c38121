package cache

import (
	"github.com/dshills/modbank/internal/module"
)

// Serialized descriptor forms. Option callbacks survive as names only; the
// resolved functions exist only on loaded modules and are never persisted.

type envelope struct {
	Magic   string         `json:"magic"`
	Version int            `json:"version"`
	Plugins []pluginRecord `json:"plugins"`
}

type pluginRecord struct {
	Path   string       `json:"path"`
	Mtime  int64        `json:"mtime"`
	Size   int64        `json:"size"`
	Module moduleRecord `json:"module"`
}

type moduleRecord struct {
	Name        string         `json:"name"`
	Shortname   string         `json:"shortname,omitempty"`
	Description string         `json:"description,omitempty"`
	Capability  string         `json:"capability,omitempty"`
	Score       int            `json:"score,omitempty"`
	Shortcuts   []string       `json:"shortcuts,omitempty"`
	Unloadable  bool           `json:"unloadable"`
	Options     []optionRecord `json:"options,omitempty"`
	Submodules  []moduleRecord `json:"submodules,omitempty"`
}

type optionRecord struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Value    any    `json:"value,omitempty"`
	Text     string `json:"text,omitempty"`
	Callback string `json:"callback,omitempty"`
}

// newPluginRecord converts a live descriptor into its serialized form.
func newPluginRecord(p *module.Plugin) pluginRecord {
	return pluginRecord{
		Path:   p.RelPath,
		Mtime:  p.Mtime,
		Size:   p.Size,
		Module: newModuleRecord(p.Module()),
	}
}

func newModuleRecord(m *module.Module) moduleRecord {
	rec := moduleRecord{
		Name:        m.Name(),
		Shortname:   m.Shortname(),
		Description: m.Description(),
		Capability:  m.Capability(),
		Score:       m.Score(),
		Shortcuts:   m.Shortcuts(),
		Unloadable:  m.Unloadable(),
	}
	for _, o := range m.Options() {
		rec.Options = append(rec.Options, optionRecord{
			Name:     o.Name,
			Type:     string(o.Type),
			Value:    o.Value,
			Text:     o.Text,
			Callback: o.CallbackName,
		})
	}
	for _, sub := range m.Submodules() {
		rec.Submodules = append(rec.Submodules, newModuleRecord(sub))
	}
	return rec
}

// plugin rebuilds a described-only descriptor from the record.
func (r pluginRecord) plugin() (*module.Plugin, error) {
	p, err := module.Describe(func(b *module.Builder) error {
		r.Module.apply(b)
		for _, sub := range r.Module.Submodules {
			sub.apply(b.AddSubmodule())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.RelPath = r.Path
	p.Mtime = r.Mtime
	p.Size = r.Size
	return p, nil
}

// apply registers the record's own fields; the caller handles submodules.
func (r moduleRecord) apply(b *module.Builder) {
	b.SetName(r.Name)
	b.SetShortname(r.Shortname)
	b.SetDescription(r.Description)
	b.SetCapability(r.Capability, r.Score)
	for _, s := range r.Shortcuts {
		b.AddShortcut(s)
	}
	b.SetUnloadable(r.Unloadable)
	for _, o := range r.Options {
		b.AddOption(o.option())
	}
}

// option rebuilds an Option, normalizing the JSON-decoded value back to the
// declared type (JSON numbers decode as float64).
func (r optionRecord) option() module.Option {
	o := module.Option{
		Name:         r.Name,
		Type:         module.OptionType(r.Type),
		Value:        r.Value,
		Text:         r.Text,
		CallbackName: r.Callback,
	}
	if f, ok := r.Value.(float64); ok && o.Type == module.OptionInteger {
		o.Value = int64(f)
	}
	return o
}
