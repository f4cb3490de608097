package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/lastrep/types"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerEffectHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Scene "id" { ... } is curried: Scene("id") returns a function that takes a table.
	L.SetGlobal("Scene", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.scenes = append(coll.scenes, rawScene{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Ending "id" { title = "...", lines = {...} }
	L.SetGlobal("Ending", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.endings = append(coll.endings, rawEnding{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Art "key" [[ ... ]]
	L.SetGlobal("Art", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.art = append(coll.art, rawArt{key: key, text: L.CheckString(1)})
			return 0
		}))
		return 1
	}))

	// Choice("1", "label", effect)
	L.SetGlobal("Choice", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("key", lua.LString(L.CheckString(1)))
		tbl.RawSetString("label", lua.LString(L.CheckString(2)))
		tbl.RawSetString("effect", L.CheckTable(3))
		L.Push(tbl)
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	// Advance "name" { delta = {...}, log = "...", gamble = ..., branch = ... }
	L.SetGlobal("Advance", namedEffect(L, types.KindAdvance))

	// Assess "name" { flag = "...", requires = { stat = min, ... } }
	L.SetGlobal("Assess", namedEffect(L, types.KindAssess))

	// Finale "name" { ... }
	L.SetGlobal("Finale", namedEffect(L, types.KindFinale))

	// Goto "scene"
	L.SetGlobal("Goto", L.NewFunction(func(L *lua.LState) int {
		target := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString(types.KindGoto))
		tbl.RawSetString("name", lua.LString("goto_"+target))
		tbl.RawSetString("target", lua.LString(target))
		L.Push(tbl)
		return 1
	}))

	// End "ending"
	L.SetGlobal("End", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString(types.KindEnd))
		tbl.RawSetString("name", lua.LString("end_"+id))
		tbl.RawSetString("ending", lua.LString(id))
		L.Push(tbl)
		return 1
	}))

	// Outcome { delta = {...}, rest = n, treat = bool, latch = "...", log = "..." }
	// Pass-through, returns the table.
	L.SetGlobal("Outcome", L.NewFunction(func(L *lua.LState) int {
		L.Push(L.CheckTable(1))
		return 1
	}))

	// Gamble(chance, hit, miss). miss may be omitted.
	L.SetGlobal("Gamble", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("chance", lua.LNumber(L.CheckNumber(1)))
		tbl.RawSetString("hit", L.CheckTable(2))
		if miss, ok := L.Get(3).(*lua.LTable); ok {
			tbl.RawSetString("miss", miss)
		}
		L.Push(tbl)
		return 1
	}))

	// Branch("flag", outcome): outcome replaces the base when the flag is unset.
	L.SetGlobal("Branch", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("flag", lua.LString(L.CheckString(1)))
		tbl.RawSetString("else", L.CheckTable(2))
		L.Push(tbl)
		return 1
	}))
}

// namedEffect returns a curried constructor: Kind "name" { ... } tags the
// table with its kind and name and returns it.
func namedEffect(L *lua.LState, kind types.EffectKind) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			tbl.RawSetString("kind", lua.LString(kind))
			tbl.RawSetString("name", lua.LString(name))
			L.Push(tbl)
			return 1
		}))
		return 1
	})
}
