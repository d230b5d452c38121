package bank

import (
	"os"
	"path/filepath"

	"github.com/dshills/modbank/internal/cache"
	"github.com/dshills/modbank/internal/loader"
	"github.com/dshills/modbank/internal/module"
)

// DefaultMaxDepth bounds recursion below a plugin directory.
const DefaultMaxDepth = 5

// scan carries the per-directory state of one discovery pass.
type scan struct {
	bank *Bank
	base string
	mode cacheMode

	entries   []*module.Plugin // cache entries not yet matched to a file
	collected []*module.Plugin // plugins to persist on reset
}

// scanPath discovers every plugin under one directory hierarchy.
// Caller holds b.mu.
func (b *Bank) scanPath(base string, mode cacheMode) {
	s := &scan{bank: b, base: base, mode: mode}
	if mode == cacheUse {
		s.entries = b.store.Load(base)
	} else {
		b.logger.Debug("ignoring plugins cache", "dir", base)
	}
	b.logger.Debug("browsing plugin directory", "dir", base)

	s.dir(base, "", b.maxDepth)

	// Entries never matched belong to files that vanished or changed
	// identity; they are simply dropped.
	s.entries = nil

	if mode == cacheReset {
		if err := b.store.Save(base, s.collected); err != nil {
			b.logger.Warn("cannot write plugins cache", "dir", base, "err", err)
		}
	}
}

func (s *scan) dir(absdir, reldir string, depth int) {
	if depth == 0 {
		return
	}
	entries, err := os.ReadDir(absdir)
	if err != nil {
		s.bank.logger.Debug("cannot browse directory", "dir", absdir, "err", err)
		return
	}
	for _, ent := range entries {
		rel := ent.Name()
		if reldir != "" {
			rel = filepath.Join(reldir, ent.Name())
		}
		abs := filepath.Join(s.base, rel)

		fi, err := os.Stat(abs)
		if err != nil {
			// Transient race with a concurrent delete; skip the entry.
			s.bank.logger.Debug("cannot stat file", "path", abs, "err", err)
			continue
		}
		switch {
		case fi.IsDir():
			s.dir(abs, rel, depth-1)
		case fi.Mode().IsRegular() && s.bank.ldr.Match(ent.Name()):
			if err := s.file(abs, rel, fi); err != nil {
				s.bank.logger.Warn("cannot load module", "path", abs, "err", err)
			}
		}
	}
}

// file registers one candidate plugin file, from the cache when its
// fingerprint still matches, through the loader otherwise.
func (s *scan) file(abspath, relpath string, fi os.FileInfo) error {
	mtime := fi.ModTime().Unix()
	size := fi.Size()

	var p *module.Plugin
	if s.mode == cacheUse {
		if hit := cache.Lookup(&s.entries, relpath, mtime, size); hit != nil {
			// The file may have moved wholesale with the directory;
			// only the absolute path is refreshed.
			hit.Path = abspath
			hit.Module().SetFilename(abspath)
			p = hit
		}
	}
	if p == nil {
		fresh, err := loader.Open(s.bank.ldr, abspath, true)
		if err != nil {
			return err
		}
		p = fresh
	}

	m := p.Module()
	if m.HasCallbackOptions() {
		// Choice callbacks must be usable as soon as the module is offered
		// to consumers. Neither the metadata-only cache description nor a
		// lazy load resolves them, so the plugin is reloaded eagerly.
		if s.mode == cacheReset && !m.Mapped() {
			// A reset scan never consults the cache.
			panic("bank: unmapped callback module during cache reset")
		}
		if h := m.Handle(); h != nil {
			h.Close()
		}
		fresh, err := loader.Open(s.bank.ldr, abspath, false)
		if err != nil {
			return err
		}
		p = fresh
		m = p.Module()
		// Registered callbacks keep pointing into the plugin for its
		// whole lifetime.
		m.MarkResident()
	}
	p.RelPath = relpath
	p.Mtime = mtime
	p.Size = size

	s.bank.plugins = append(s.bank.plugins, p)
	if s.mode == cacheReset {
		s.collected = append(s.collected, p)
	}
	return nil
}
