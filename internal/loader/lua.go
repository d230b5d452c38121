package loader

import (
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/modbank/internal/module"
)

// LuaEntryName is the well-known entry function a Lua module must define.
const LuaEntryName = "modbank_entry"

// Lua module filename convention: lib<name>_plugin.lua.
const (
	luaPrefix = "lib"
	luaSuffix = "_plugin.lua"
)

// LuaLoader loads modules written as sandboxed Lua files.
//
// A Lua module defines a global function modbank_entry(m) and registers
// itself through the table m:
//
//	function modbank_entry(m)
//	    m.set_name("wavdec")
//	    m.set_capability("decoder", 100)
//	    m.add_option{ name = "device", type = "string", callback = "list_devices" }
//	    local sub = m.add_submodule()
//	    sub.set_name("wavpack")
//	    sub.set_capability("packetizer", 50)
//	end
//
// Option callbacks name global functions in the same file. In fast mode they
// are left unresolved; full mode resolves them during Describe and fails on a
// missing symbol.
type LuaLoader struct{}

// NewLuaLoader creates the Lua loader backend.
func NewLuaLoader() *LuaLoader {
	return &LuaLoader{}
}

// Match reports whether filename looks like a Lua module.
func (l *LuaLoader) Match(filename string) bool {
	return len(filename) > len(luaPrefix)+len(luaSuffix) &&
		strings.HasPrefix(filename, luaPrefix) &&
		strings.HasSuffix(filename, luaSuffix)
}

// LoadFile compiles and runs the Lua file at path in a fresh sandboxed state.
func (l *LuaLoader) LoadFile(path string, fast bool) (module.Handle, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, err
	}
	return &luaHandle{L: L, path: path, fast: fast}, nil
}

// Describe resolves modbank_entry and runs it against a fresh builder.
func (l *LuaLoader) Describe(h module.Handle) (*module.Plugin, error) {
	lh, ok := h.(*luaHandle)
	if !ok {
		return nil, ErrBadHandle
	}

	lh.mu.Lock()
	defer lh.mu.Unlock()
	if lh.closed {
		return nil, ErrHandleClosed
	}

	entry := lh.L.GetGlobal(LuaEntryName)
	if entry.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %s", ErrNoEntry, LuaEntryName)
	}

	p, err := module.Describe(func(b *module.Builder) error {
		return lh.L.CallByParam(
			lua.P{Fn: entry, NRet: 0, Protect: true},
			lh.registrar(b),
		)
	})
	if err != nil {
		return nil, err
	}

	if !lh.fast {
		err := p.Module().ResolveOptions(func(name string) (module.ChoicesFunc, error) {
			if lh.L.GetGlobal(name).Type() != lua.LTFunction {
				return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
			}
			return lh.choices(name), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// openSafeLibraries opens only the Lua standard libraries safe for module
// registration code. io, os, debug and package stay closed, as do the
// load/loadfile family.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// registrar builds the registration table handed to the entry function.
// Must be called with lh.mu held.
func (lh *luaHandle) registrar(b *module.Builder) *lua.LTable {
	L := lh.L
	t := L.NewTable()
	set := func(name string, fn lua.LGFunction) {
		t.RawSetString(name, L.NewFunction(fn))
	}

	set("set_name", func(L *lua.LState) int {
		b.SetName(L.CheckString(1))
		return 0
	})
	set("set_shortname", func(L *lua.LState) int {
		b.SetShortname(L.CheckString(1))
		return 0
	})
	set("set_description", func(L *lua.LState) int {
		b.SetDescription(L.CheckString(1))
		return 0
	})
	set("set_capability", func(L *lua.LState) int {
		b.SetCapability(L.CheckString(1), L.CheckInt(2))
		return 0
	})
	set("add_shortcut", func(L *lua.LState) int {
		b.AddShortcut(L.CheckString(1))
		return 0
	})
	set("set_unloadable", func(L *lua.LState) int {
		b.SetUnloadable(L.CheckBool(1))
		return 0
	})
	set("add_option", func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		b.AddOption(module.Option{
			Name:         tableString(tbl, "name"),
			Type:         module.OptionType(tableString(tbl, "type")),
			Text:         tableString(tbl, "text"),
			CallbackName: tableString(tbl, "callback"),
			Value:        toGoValue(tbl.RawGetString("value")),
		})
		return 0
	})
	set("add_submodule", func(L *lua.LState) int {
		L.Push(lh.registrar(b.AddSubmodule()))
		return 1
	})

	return t
}

// choices wraps a named global function into a ChoicesFunc.
func (lh *luaHandle) choices(name string) module.ChoicesFunc {
	return func() ([]string, error) {
		lh.mu.Lock()
		defer lh.mu.Unlock()
		if lh.closed {
			return nil, ErrHandleClosed
		}

		fn := lh.L.GetGlobal(name)
		if fn.Type() != lua.LTFunction {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
		}
		if err := lh.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
			return nil, err
		}
		ret := lh.L.Get(-1)
		lh.L.Pop(1)

		tbl, ok := ret.(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("callback %s returned %s, want table", name, ret.Type())
		}
		var out []string
		tbl.ForEach(func(_, v lua.LValue) {
			out = append(out, v.String())
		})
		return out, nil
	}
}

// luaHandle is the live form of a loaded Lua module.
//
// gopher-lua states are not goroutine-safe; the mutex serializes every
// operation that touches the state.
type luaHandle struct {
	mu     sync.Mutex
	L      *lua.LState
	path   string
	fast   bool
	closed bool
}

// Lookup resolves a global Lua function by name and returns it as a
// func(args ...any) ([]any, error).
func (lh *luaHandle) Lookup(name string) (any, error) {
	lh.mu.Lock()
	defer lh.mu.Unlock()
	if lh.closed {
		return nil, ErrHandleClosed
	}

	v := lh.L.GetGlobal(name)
	if v.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
	}
	fn := v.(*lua.LFunction)

	call := func(args ...any) ([]any, error) {
		lh.mu.Lock()
		defer lh.mu.Unlock()
		if lh.closed {
			return nil, ErrHandleClosed
		}

		largs := make([]lua.LValue, len(args))
		for i, a := range args {
			largs[i] = toLuaValue(lh.L, a)
		}

		base := lh.L.GetTop()
		if err := lh.L.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true}, largs...); err != nil {
			return nil, err
		}

		n := lh.L.GetTop() - base
		results := make([]any, n)
		for i := 0; i < n; i++ {
			results[i] = toGoValue(lh.L.Get(base + 1 + i))
		}
		lh.L.Pop(n)
		return results, nil
	}
	return call, nil
}

// Close releases the Lua state. Close is idempotent.
func (lh *luaHandle) Close() error {
	lh.mu.Lock()
	defer lh.mu.Unlock()
	if lh.closed {
		return nil
	}
	lh.closed = true
	lh.L.Close()
	return nil
}

// tableString reads a string field from a Lua table, "" when absent.
func tableString(t *lua.LTable, key string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return ""
}
