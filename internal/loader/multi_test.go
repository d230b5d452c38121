package loader

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMultiMatchRoutesByConvention(t *testing.T) {
	l := NewMulti(NewLuaLoader(), NewGoLoader())

	if !l.Match("libwav_plugin.lua") {
		t.Error("Match rejected a Lua plugin filename")
	}
	if !l.Match("libwav_plugin" + loadableExt()) {
		t.Error("Match rejected a native plugin filename")
	}
	if l.Match("libwav_plugin.txt") {
		t.Error("Match accepted an unknown extension")
	}
}

func TestMultiOpenDelegates(t *testing.T) {
	path := writeLuaModule(t, t.TempDir(), "libwav_plugin.lua", wavModule)

	p, err := Open(NewMulti(NewLuaLoader(), NewGoLoader()), path, true)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Module().Handle().Close()

	if p.Module().Name() != "wavdec" {
		t.Errorf("Name() = %q, want wavdec", p.Module().Name())
	}
}

func TestMultiLoadFileUnknownFormat(t *testing.T) {
	l := NewMulti(NewLuaLoader())

	_, err := Open(l, filepath.Join(t.TempDir(), "whatever.txt"), true)
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("Open() error = %v, want ErrNoBackend in chain", err)
	}
}

func TestMultiDescribeForeignHandle(t *testing.T) {
	path := writeLuaModule(t, t.TempDir(), "libwav_plugin.lua", wavModule)

	lua := NewLuaLoader()
	h, err := lua.LoadFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := NewMulti(lua).Describe(h); !errors.Is(err, ErrBadHandle) {
		t.Errorf("Describe(foreign) error = %v, want ErrBadHandle", err)
	}
}
