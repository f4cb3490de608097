// Package loader loads Lua game content into Go structs at startup.
// The Lua VM is discarded after loading, so no Lua runs during play.
package loader

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

// rawScene holds a scene table before compilation.
type rawScene struct {
	id    string
	table *lua.LTable
}

// rawEnding holds an ending table before compilation.
type rawEnding struct {
	id    string
	table *lua.LTable
}

type rawArt struct {
	key  string
	text string
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStrings converts a Lua array of strings. Non-string entries are skipped.
func tableToStrings(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	out := make([]string, 0, tbl.MaxN())
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToIntMap converts a Lua table of name = number pairs.
func tableToIntMap(tbl *lua.LTable) map[string]int {
	m := map[string]int{}
	if tbl == nil {
		return m
	}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			m[string(ks)] = int(n)
		}
	})
	return m
}

// compile turns the collected tables into a Graph. Non-fatal problems are
// returned as warnings.
func compile(coll *collector) (*state.Graph, []string, error) {
	graph := &state.Graph{
		Scenes:  map[string]types.Scene{},
		Endings: map[string]types.Ending{},
		Art:     map[string]string{},
	}
	var warnings []string

	// Game.
	if coll.game == nil {
		return nil, nil, fmt.Errorf("no Game{} definition found")
	}
	graph.Game = compileGame(coll.game)

	// Art.
	for _, raw := range coll.art {
		if _, dup := graph.Art[raw.key]; dup {
			return nil, nil, fmt.Errorf("duplicate art %q", raw.key)
		}
		graph.Art[raw.key] = strings.Trim(raw.text, "\n")
	}

	// Scenes.
	for _, raw := range coll.scenes {
		if _, dup := graph.Scenes[raw.id]; dup {
			return nil, nil, fmt.Errorf("duplicate scene %q", raw.id)
		}
		scene, warns := compileScene(raw)
		graph.Scenes[scene.ID] = scene
		warnings = append(warnings, warns...)
	}

	// Endings.
	for _, raw := range coll.endings {
		if _, dup := graph.Endings[raw.id]; dup {
			return nil, nil, fmt.Errorf("duplicate ending %q", raw.id)
		}
		graph.Endings[raw.id] = types.Ending{
			ID:    raw.id,
			Title: getString(raw.table, "title"),
			Lines: tableToStrings(getTable(raw.table, "lines")),
		}
	}

	return graph, warnings, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
	}
}

// compileScene compiles a raw scene and returns warnings for its effects.
func compileScene(raw rawScene) (types.Scene, []string) {
	tbl := raw.table
	scene := types.Scene{
		ID:    raw.id,
		Title: getString(tbl, "title"),
		Art:   getString(tbl, "art"),
		Text:  tableToStrings(getTable(tbl, "text")),
	}

	var warnings []string
	choices := getTable(tbl, "choices")
	if choices == nil {
		return scene, nil
	}
	for i := 1; i <= choices.MaxN(); i++ {
		ct, ok := choices.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		choice := types.Choice{
			Key:   getString(ct, "key"),
			Label: getString(ct, "label"),
		}
		if et := getTable(ct, "effect"); et != nil {
			eff, unknown := compileEffect(et)
			choice.Effect = eff
			for _, name := range unknown {
				warnings = append(warnings, fmt.Sprintf(
					"scene %q choice %q: effect %q changes unknown stat %q",
					raw.id, choice.Key, eff.Name, name))
			}
		}
		scene.Choices = append(scene.Choices, choice)
	}
	return scene, warnings
}

// compileEffect compiles an effect table. It returns the delta names that
// are not stats.
func compileEffect(tbl *lua.LTable) (types.Effect, []string) {
	eff := types.Effect{
		Kind:   types.EffectKind(getString(tbl, "kind")),
		Name:   getString(tbl, "name"),
		Target: getString(tbl, "target"),
		Ending: getString(tbl, "ending"),
	}

	var unknown []string
	eff.Outcome, unknown = compileOutcome(tbl)

	if gt := getTable(tbl, "gamble"); gt != nil {
		g := &types.Gamble{Chance: getNumber(gt, "chance")}
		var u []string
		if hit := getTable(gt, "hit"); hit != nil {
			g.Hit, u = compileOutcome(hit)
			unknown = append(unknown, u...)
		}
		if miss := getTable(gt, "miss"); miss != nil {
			g.Miss, u = compileOutcome(miss)
			unknown = append(unknown, u...)
		}
		eff.Gamble = g
	}

	if bt := getTable(tbl, "branch"); bt != nil {
		b := &types.Branch{Flag: getString(bt, "flag")}
		if alt := getTable(bt, "else"); alt != nil {
			var u []string
			b.Else, u = compileOutcome(alt)
			unknown = append(unknown, u...)
		}
		eff.Branch = b
	}

	if eff.Kind == types.KindAssess {
		eff.Assess = compileAssess(tbl)
	}

	return eff, unknown
}

func compileOutcome(tbl *lua.LTable) (types.Outcome, []string) {
	d, unknown := state.DeltaFromNamed(tableToIntMap(getTable(tbl, "delta")))
	return types.Outcome{
		Delta: d,
		Rest:  getInt(tbl, "rest"),
		Treat: getBool(tbl, "treat", false),
		Latch: types.Latch(getString(tbl, "latch")),
		Log:   getString(tbl, "log"),
	}, unknown
}

// compileAssess reads the flag and its thresholds, sorted by stat name.
func compileAssess(tbl *lua.LTable) *types.Assess {
	a := &types.Assess{Flag: getString(tbl, "flag")}
	for stat, v := range tableToIntMap(getTable(tbl, "requires")) {
		a.Requires = append(a.Requires, types.Threshold{Stat: stat, Min: v})
	}
	sort.Slice(a.Requires, func(i, j int) bool {
		return a.Requires[i].Stat < a.Requires[j].Stat
	})
	return a
}

// sortedLuaFiles returns the .lua files with main first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string, main string) []string {
	var found bool
	var others []string
	for _, f := range files {
		if f == main {
			found = true
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if found {
		return append([]string{main}, others...)
	}
	return others
}
