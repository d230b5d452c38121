package bank

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/modbank/internal/cache"
	"github.com/dshills/modbank/internal/loader"
)

const callbackModule = `
function modbank_entry(m)
	m.set_name("aout")
	m.set_capability("output", 50)
	m.add_option{ name = "device", type = "string", callback = "list_devices" }
end

function list_devices()
	return { "default", "hdmi" }
end
`

func TestScanRespectsMaxDepth(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "libtop_plugin.lua", decoderModule("top", 10))
	writeLuaModule(t, dir, filepath.Join("sub", "libnested_plugin.lua"),
		decoderModule("nested", 10))
	writeLuaModule(t, dir, filepath.Join("sub", "deeper", "libdeep_plugin.lua"),
		decoderModule("deep", 10))

	b := New(
		WithLoader(loader.NewLuaLoader()),
		WithCacheEnabled(false),
		WithPluginDir(dir),
		WithMaxDepth(2),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	if b.Find("top") == nil {
		t.Error("top-level plugin not found")
	}
	if b.Find("nested") == nil {
		t.Error("plugin one level down not found")
	}
	if b.Find("deep") != nil {
		t.Error("plugin below the depth bound was scanned")
	}
}

func TestScanSkipsNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "libwav_plugin.lua", decoderModule("wavdec", 100))
	writeLuaModule(t, dir, "README", "not a plugin")
	writeLuaModule(t, dir, "helper.lua", `print("not a plugin either")`)

	b := New(
		WithLoader(loader.NewLuaLoader()),
		WithCacheEnabled(false),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()

	n, err := b.LoadPlugins()
	if err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}
	// The built-in core module plus the one real plugin.
	if n != 2 {
		t.Errorf("LoadPlugins() = %d modules, want 2", n)
	}
}

func TestScanSurvivesBrokenPlugin(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "libbad_plugin.lua", `
function modbank_entry(m)
	error("registration exploded")
end
`)
	writeLuaModule(t, dir, "libwav_plugin.lua", decoderModule("wavdec", 100))

	b := New(
		WithLoader(loader.NewLuaLoader()),
		WithCacheEnabled(false),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	if b.Find("wavdec") == nil {
		t.Error("broken plugin aborted the scan")
	}
}

func TestScanWalksSearchPath(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeLuaModule(t, dirA, "liba_plugin.lua", decoderModule("adec", 10))
	writeLuaModule(t, dirB, "libb_plugin.lua", decoderModule("bdec", 10))

	b := New(
		WithLoader(loader.NewLuaLoader()),
		WithCacheEnabled(false),
		WithSearchPath(strings.Join([]string{dirA, dirB}, string(filepath.ListSeparator))),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	if b.Find("adec") == nil || b.Find("bdec") == nil {
		t.Error("search path directories were not all scanned")
	}
}

// seedCache runs one reset scan over dir so later scans can hit the cache.
func seedCache(t *testing.T, store *cache.Store, dir string) {
	t.Helper()
	b := New(
		WithLoader(loader.NewLuaLoader()),
		WithCacheStore(store),
		WithCacheReset(true),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("seed LoadPlugins() error = %v", err)
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}
}

func TestCachedRescanSkipsLoader(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "libwav_plugin.lua", decoderModule("wavdec", 100))
	store := cache.NewStore(t.TempDir())
	seedCache(t, store, dir)

	cl := &countingLoader{Loader: loader.NewLuaLoader()}
	b := New(
		WithLoader(cl),
		WithCacheStore(store),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	if cl.loads != 0 {
		t.Errorf("cached rescan hit the loader %d times, want 0", cl.loads)
	}
	m := b.Find("wavdec")
	if m == nil {
		t.Fatal("cached module not registered")
	}
	if m.Mapped() {
		t.Error("cache-described module is mapped before first use")
	}
	if m.Filename() == "" {
		t.Error("cache-described module lost its backing file path")
	}
}

func TestStaleCacheEntryReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeLuaModule(t, dir, "libwav_plugin.lua", decoderModule("wavdec", 100))
	store := cache.NewStore(t.TempDir())
	seedCache(t, store, dir)

	// Grow the file so the cached fingerprint no longer matches.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\n-- rebuilt\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cl := &countingLoader{Loader: loader.NewLuaLoader()}
	b := New(
		WithLoader(cl),
		WithCacheStore(store),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	if cl.loads != 1 {
		t.Errorf("stale entry caused %d loads, want 1", cl.loads)
	}
	m := b.Find("wavdec")
	if m == nil {
		t.Fatal("reloaded module not registered")
	}
	if !m.Mapped() {
		t.Error("freshly loaded module is not mapped")
	}
}

func TestCacheResetDropsVanishedEntries(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "liba_plugin.lua", decoderModule("adec", 10))
	gone := writeLuaModule(t, dir, "libb_plugin.lua", decoderModule("bdec", 10))
	store := cache.NewStore(t.TempDir())
	seedCache(t, store, dir)

	if got := len(store.Load(dir)); got != 2 {
		t.Fatalf("seeded cache holds %d entries, want 2", got)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	seedCache(t, store, dir)

	entries := store.Load(dir)
	if len(entries) != 1 {
		t.Fatalf("cache after reset holds %d entries, want 1", len(entries))
	}
	if entries[0].RelPath != "liba_plugin.lua" {
		t.Errorf("surviving entry = %q, want liba_plugin.lua", entries[0].RelPath)
	}
}

func TestCallbackModuleStaysResident(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "libaout_plugin.lua", callbackModule)

	cl := &countingLoader{Loader: loader.NewLuaLoader()}
	b := New(
		WithLoader(cl),
		WithCacheEnabled(false),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	m := b.Find("aout")
	if m == nil {
		t.Fatal("callback module not registered")
	}
	if !m.Mapped() {
		t.Error("callback module is not mapped")
	}
	if m.Unloadable() {
		t.Error("callback module is unloadable")
	}

	cb := m.Options()[0].Callback
	if cb == nil {
		t.Fatal("option callback left unresolved after scan")
	}
	choices, err := cb()
	if err != nil {
		t.Fatalf("callback error = %v", err)
	}
	if len(choices) != 2 || choices[0] != "default" {
		t.Errorf("callback choices = %v, want [default hdmi]", choices)
	}
}

func TestCachedCallbackModuleReloads(t *testing.T) {
	dir := t.TempDir()
	writeLuaModule(t, dir, "libaout_plugin.lua", callbackModule)
	store := cache.NewStore(t.TempDir())
	seedCache(t, store, dir)

	cl := &countingLoader{Loader: loader.NewLuaLoader()}
	b := New(
		WithLoader(cl),
		WithCacheStore(store),
		WithPluginDir(dir),
		WithLogger(quietLogger()),
	)
	b.Init()
	defer b.End()
	if _, err := b.LoadPlugins(); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	// The cache hit carries metadata only; the callback forces a real load
	// even on a cache-backed scan.
	if cl.loads != 1 {
		t.Errorf("cached callback module caused %d loads, want 1", cl.loads)
	}
	m := b.Find("aout")
	if m == nil {
		t.Fatal("callback module not registered")
	}
	if !m.Mapped() || m.Unloadable() {
		t.Error("callback module is not resident after cached scan")
	}
	if m.Options()[0].Callback == nil {
		t.Error("option callback left unresolved after cached scan")
	}
}
