package loader

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/lastrep/content"
	"github.com/nathoo/lastrep/engine/state"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game    *lua.LTable
	scenes  []rawScene
	endings []rawEnding
	art     []rawArt
}

// Load runs every .lua file at the root of fsys, main first and the rest
// alphabetically, compiles the definitions into a scene graph, validates
// it, and returns the immutable Graph. The Lua VM is discarded after
// loading. Validation failures are returned as *ValidationError.
func Load(fsys fs.FS, main string) (*state.Graph, error) {
	// Discover .lua files.
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found")
	}
	luaFiles = sortedLuaFiles(luaFiles, main)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	// Execute each file.
	for _, f := range luaFiles {
		if err := runFile(L, fsys, f); err != nil {
			return nil, err
		}
	}

	// Compile.
	graph, warnings, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	// Validate.
	if err := validate(graph, warnings); err != nil {
		return nil, err
	}

	return graph, nil
}

// LoadDir loads content from a directory on disk.
func LoadDir(dir string) (*state.Graph, error) {
	graph, err := Load(os.DirFS(dir), "")
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	return graph, nil
}

// LoadDefault loads the built-in game.
func LoadDefault() (*state.Graph, error) {
	return Load(content.FS, content.Main)
}

func runFile(L *lua.LState, fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	fn, err := L.Load(bytes.NewReader(data), name)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("executing %s: %w", name, err)
	}
	return nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content draws no randomness of its own.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("random", lua.LNil)
		tbl.RawSetString("randomseed", lua.LNil)
	}
}
