package bank

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/modbank/internal/cache"
	"github.com/dshills/modbank/internal/loader"
	"github.com/dshills/modbank/internal/module"
)

// cacheMode selects how a scan interacts with the persistent cache.
type cacheMode int

const (
	cacheUse    cacheMode = iota // consult the cache, load only misses
	cacheReset                   // load everything, rewrite the cache
	cacheIgnore                  // load everything, never touch the cache
)

// Bank is a refcounted module registry. The zero value is not usable;
// construct with New.
type Bank struct {
	mu    sync.Mutex // lifecycle, registry
	mapMu sync.Mutex // per-module mapped-state transitions only

	usage   int
	loaded  bool
	plugins []*module.Plugin

	ldr        loader.Loader
	store      *cache.Store
	logger     *log.Logger
	useCache   bool
	resetCache bool
	pluginDir  string
	searchPath string
	static     []module.EntryFunc
	maxDepth   int
}

// Option configures a Bank.
type Option func(*Bank)

// WithLoader sets the backend used to load and describe plugin files.
// Without a loader the bank only registers static modules.
func WithLoader(l loader.Loader) Option {
	return func(b *Bank) { b.ldr = l }
}

// WithCacheStore sets the persistent descriptor cache.
func WithCacheStore(s *cache.Store) Option {
	return func(b *Bank) { b.store = s }
}

// WithCacheEnabled controls whether scans consult the descriptor cache.
func WithCacheEnabled(enabled bool) Option {
	return func(b *Bank) { b.useCache = enabled }
}

// WithCacheReset forces the next scan to reload every plugin and rewrite
// the cache from scratch.
func WithCacheReset(reset bool) Option {
	return func(b *Bank) { b.resetCache = reset }
}

// WithPluginDir sets the primary plugin directory, scanned before any
// search path entries.
func WithPluginDir(dir string) Option {
	return func(b *Bank) { b.pluginDir = dir }
}

// WithSearchPath sets additional plugin directories as a single
// list-separated string, in the platform convention.
func WithSearchPath(path string) Option {
	return func(b *Bank) { b.searchPath = path }
}

// WithStaticModules registers entry points compiled into the host
// program. Static modules are always resident and never unmapped.
func WithStaticModules(entries ...module.EntryFunc) Option {
	return func(b *Bank) { b.static = append(b.static, entries...) }
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(b *Bank) { b.logger = logger }
}

// WithMaxDepth bounds directory recursion during scans.
func WithMaxDepth(depth int) Option {
	return func(b *Bank) { b.maxDepth = depth }
}

// New builds a bank. The bank holds no modules until Init and LoadPlugins.
func New(opts ...Option) *Bank {
	b := &Bank{
		useCache: true,
		maxDepth: DefaultMaxDepth,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// coreEntry describes the built-in core module present in every bank.
func coreEntry(b *module.Builder) error {
	b.SetName("core")
	b.SetShortname("Core")
	b.SetDescription("core program")
	b.SetCapability("core", 0)
	return nil
}

// Init acquires a reference to the bank. The first reference registers the
// built-in core module. Every Init must be balanced by an End.
func (b *Bank) Init() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.usage == 0 {
		p, err := describeStatic(coreEntry)
		if err != nil {
			// coreEntry is total; a failure here is a programming error.
			panic(fmt.Sprintf("bank: core module: %v", err))
		}
		b.plugins = append(b.plugins, p)
	}
	b.usage++
}

// End releases a reference. When the last reference drops the registry is
// drained and every mapped, unloadable module is unmapped. Returns
// ErrNotInitialized when the usage count is already zero.
func (b *Bank) End() error {
	b.mu.Lock()
	if b.usage == 0 {
		b.mu.Unlock()
		return ErrNotInitialized
	}
	b.usage--
	var drained []*module.Plugin
	if b.usage == 0 {
		drained = b.plugins
		b.plugins = nil
		b.loaded = false
	}
	b.mu.Unlock()

	// Mapped state is mutated only under the map lock, teardown included.
	b.mapMu.Lock()
	defer b.mapMu.Unlock()
	for _, p := range drained {
		m := p.Module()
		if !m.Mapped() || !m.Unloadable() {
			continue
		}
		if h := m.Handle(); h != nil {
			if err := h.Close(); err != nil {
				b.logger.Warn("cannot unload module", "name", m.Name(), "err", err)
			}
		}
		m.MarkUnmapped()
	}
	return nil
}

// LoadPlugins populates the registry: static modules first, then the plugin
// directory, then each search path entry. Discovery runs at most once per
// activation; later calls only report the module count. The lifecycle lock
// is held across the whole scan.
func (b *Bank) LoadPlugins() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.usage == 0 {
		return 0, ErrNotInitialized
	}
	if !b.loaded {
		for _, entry := range b.static {
			p, err := describeStatic(entry)
			if err != nil {
				b.logger.Warn("cannot describe static module", "err", err)
				continue
			}
			b.plugins = append(b.plugins, p)
		}
		if b.ldr != nil {
			mode := b.scanMode()
			if b.pluginDir != "" {
				b.scanPath(b.pluginDir, mode)
			}
			for _, dir := range filepath.SplitList(b.searchPath) {
				if dir == "" {
					continue
				}
				b.scanPath(dir, mode)
			}
		}
		b.loaded = true
	}
	return len(b.listLocked()), nil
}

func (b *Bank) scanMode() cacheMode {
	switch {
	case !b.useCache || b.store == nil:
		return cacheIgnore
	case b.resetCache:
		return cacheReset
	default:
		return cacheUse
	}
}

// describeStatic runs a compiled-in entry point and marks the result
// permanently in memory.
func describeStatic(entry module.EntryFunc) (*module.Plugin, error) {
	p, err := module.Describe(entry)
	if err != nil {
		return nil, err
	}
	p.Module().MarkMapped(nil)
	p.Module().MarkResident()
	return p, nil
}

// ListAll returns every registered module, submodules included, in
// registration order. The slice is the caller's to keep.
func (b *Bank) ListAll() []*module.Module {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listLocked()
}

func (b *Bank) listLocked() []*module.Module {
	var out []*module.Module
	for _, p := range b.plugins {
		m := p.Module()
		out = append(out, m)
		out = append(out, m.Submodules()...)
	}
	return out
}

// ListByCapability returns the modules providing capability, sorted by
// score descending. Modules with equal scores keep registration order.
func (b *Bank) ListByCapability(capability string) []*module.Module {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.listLocked()
	n := 0
	for _, m := range all {
		if m.Provides(capability) {
			n++
		}
	}
	out := make([]*module.Module, 0, n)
	for _, m := range all {
		if m.Provides(capability) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}

// Find returns the first registered module whose name or shortcut matches,
// or nil.
func (b *Bank) Find(name string) *module.Module {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.listLocked() {
		if m.Matches(name) {
			return m
		}
	}
	return nil
}

// Count returns the number of registered modules, submodules included.
func (b *Bank) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listLocked())
}

// Map forces the plugin behind m fully into memory. Modules described from
// the cache carry metadata only; their code is loaded here, on first real
// use. Mapping is idempotent and shared by all modules of the plugin.
func (b *Bank) Map(m *module.Module) error {
	b.mapMu.Lock()
	defer b.mapMu.Unlock()

	p := m.Plugin()
	top := p.Module()
	if top.Mapped() {
		return nil
	}
	if b.ldr == nil {
		return fmt.Errorf("bank: %w: %s", ErrLoadingDisabled, top.Name())
	}
	path := top.Filename()
	if path == "" {
		return fmt.Errorf("bank: %w: %s", ErrNoBackingFile, top.Name())
	}
	fresh, err := loader.Open(b.ldr, path, false)
	if err != nil {
		b.logger.Error("corrupt module", "path", path, "err", err)
		return err
	}
	// The cached descriptor stays registered; only the load state and
	// resolved callbacks are adopted from the fresh description.
	p.Merge(fresh)
	return nil
}
