package termhost

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/enmity/internal/resolver"
)

// Loader errors.
var (
	ErrLoaderClosed  = errors.New("lua loader is closed")
	ErrDuplicateHook = errors.New("resolve hook already registered")
)

type hook struct {
	id string
	fn resolver.Func
}

// Loader is the host's module loader: a Lua state whose require falls back
// to registered resolve hooks when the standard searchers find nothing.
//
// gopher-lua states are not goroutine-safe; every use of L goes through mu.
// Hooks are kept under a separate lock so a hook may run while a require
// holds the state.
type Loader struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool

	hookMu sync.RWMutex
	hooks  []hook
}

// NewLoader creates a loader with the safe standard libraries and the
// package library. searchPath replaces package.path when not empty.
func NewLoader(searchPath string) *Loader {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	l := &Loader{L: L}

	pkg := L.GetGlobal("package").(*lua.LTable)
	if searchPath != "" {
		L.SetField(pkg, "path", lua.LString(searchPath))
	}
	loaders, ok := L.GetField(pkg, "loaders").(*lua.LTable)
	if ok {
		loaders.Append(L.NewFunction(l.search))
	}
	return l
}

// AddResolveHook implements resolver.HookRegistry.
func (l *Loader) AddResolveHook(id string, fn resolver.Func) error {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	for _, h := range l.hooks {
		if h.id == id {
			return fmt.Errorf("%w: %s", ErrDuplicateHook, id)
		}
	}
	l.hooks = append(l.hooks, hook{id: id, fn: fn})
	return nil
}

// RemoveResolveHook implements resolver.HookRegistry.
func (l *Loader) RemoveResolveHook(id string) {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	for i, h := range l.hooks {
		if h.id == id {
			l.hooks = append(l.hooks[:i], l.hooks[i+1:]...)
			return
		}
	}
}

// Hooks returns the number of installed hooks.
func (l *Loader) Hooks() int {
	l.hookMu.RLock()
	defer l.hookMu.RUnlock()
	return len(l.hooks)
}

// Resolve asks each hook in registration order for name.
func (l *Loader) Resolve(name string) (resolver.Module, bool) {
	l.hookMu.RLock()
	hooks := make([]hook, len(l.hooks))
	copy(hooks, l.hooks)
	l.hookMu.RUnlock()

	for _, h := range hooks {
		if mod, ok := h.fn(name); ok {
			return mod, true
		}
	}
	return nil, false
}

// search is the package.loaders entry consulted after the standard ones.
func (l *Loader) search(L *lua.LState) int {
	name := L.CheckString(1)

	mod, ok := l.Resolve(name)
	if !ok {
		L.Push(lua.LString(fmt.Sprintf("\n\tno resolve hook provides '%s'", name)))
		return 1
	}

	switch m := mod.(type) {
	case *resolver.LuaModule:
		L.Push(L.NewFunctionFromProto(m.Proto))
	default:
		path := mod.Path()
		L.Push(L.NewFunction(func(L *lua.LState) int {
			t := L.NewTable()
			L.SetField(t, "path", lua.LString(path))
			L.Push(t)
			return 1
		}))
	}
	return 1
}

// Require loads module name with Lua's require and returns its value.
func (l *Loader) Require(name string) (v lua.LValue, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLoaderClosed
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := l.L.CallByParam(lua.P{
		Fn:      l.L.GetGlobal("require"),
		NRet:    1,
		Protect: true,
	}, lua.LString(name)); err != nil {
		return nil, err
	}
	v = l.L.Get(-1)
	l.L.Pop(1)
	return v, nil
}

// Close releases the Lua state.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.L.Close()
}

var _ resolver.HookRegistry = (*Loader)(nil)
