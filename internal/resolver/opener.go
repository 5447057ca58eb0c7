package resolver

import (
	"bufio"
	"fmt"
	"os"
	"plugin"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Module is a loaded auxiliary binary.
type Module interface {
	// Path returns the file the module was loaded from.
	Path() string
}

// Opener loads module files of one kind.
type Opener interface {
	// Ext returns the file extension, including the dot.
	Ext() string
	// Open loads the module at path.
	Open(path string) (Module, error)
}

// LuaModule is a compiled Lua chunk.
type LuaModule struct {
	path  string
	Proto *lua.FunctionProto
}

// Path implements Module.
func (m *LuaModule) Path() string { return m.path }

// LuaOpener compiles Lua source files.
type LuaOpener struct{}

// Ext implements Opener.
func (LuaOpener) Ext() string { return ".lua" }

// Open parses and compiles the chunk at path without running it.
func (LuaOpener) Open(path string) (Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return &LuaModule{path: path, Proto: proto}, nil
}

// NativeModule is a Go plugin shared object.
type NativeModule struct {
	path   string
	Plugin *plugin.Plugin
}

// Path implements Module.
func (m *NativeModule) Path() string { return m.path }

// NativeOpener opens Go plugins built with -buildmode=plugin.
type NativeOpener struct{}

// Ext implements Opener.
func (NativeOpener) Ext() string { return ".so" }

// Open loads the shared object at path.
func (NativeOpener) Open(path string) (Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &NativeModule{path: path, Plugin: p}, nil
}
