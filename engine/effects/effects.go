// Package effects implements centralized state mutation via the Apply function.
// Every effect kind is one dispatch case; the data comes from content.
package effects

import (
	"github.com/nathoo/lastrep/engine/ending"
	"github.com/nathoo/lastrep/engine/route"
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/engine/tick"
	"github.com/nathoo/lastrep/types"
)

// Apply runs one effect against the game state and returns the events it
// emitted. A state that has already ended is never touched.
func Apply(gs *state.GameState, graph *state.Graph, eff types.Effect) []types.Event {
	if gs.Ended {
		return nil
	}

	var events []types.Event

	switch eff.Kind {
	case types.KindAdvance:
		events = append(events, applyPrelude(gs, eff)...)
		events = append(events, tick.Advance(gs)...)
		if id, ok := ending.Early(gs.Stats); ok {
			events = append(events, end(gs, graph, id))
			return events
		}
		events = append(events, moveTo(gs, route.Next(gs)))

	case types.KindAssess:
		applyOutcome(gs, eff.Outcome)
		if eff.Assess != nil {
			ok := meets(gs.Stats, eff.Assess.Requires)
			gs.Flags[eff.Assess.Flag] = ok
			events = append(events, types.Event{
				Type: "flag_changed",
				Data: map[string]any{"flag": eff.Assess.Flag, "value": ok},
			})
		}

	case types.KindGoto:
		applyOutcome(gs, eff.Outcome)
		events = append(events, moveTo(gs, eff.Target))

	case types.KindEnd:
		applyOutcome(gs, eff.Outcome)
		events = append(events, end(gs, graph, eff.Ending))

	case types.KindFinale:
		events = append(events, applyPrelude(gs, eff)...)
		v := ending.Finale(gs)
		ev := end(gs, graph, v.Ending)
		ev.Data["scored"] = v.Scored
		if v.Scored {
			ev.Data["score"] = v.Score
			ev.Data["jitter"] = v.Jitter
		}
		events = append(events, ev)

	default:
		// Unknown kinds are rejected by the loader.
	}

	return events
}

// applyPrelude applies the base outcome (or the branch's alternative) and
// then the gamble, if any.
func applyPrelude(gs *state.GameState, eff types.Effect) []types.Event {
	var events []types.Event

	outcome := eff.Outcome
	if eff.Branch != nil && !gs.GetFlag(eff.Branch.Flag) {
		outcome = eff.Branch.Else
	}
	applyOutcome(gs, outcome)

	if g := eff.Gamble; g != nil {
		hit := gs.RNG.Chance(g.Chance)
		if hit {
			applyOutcome(gs, g.Hit)
		} else {
			applyOutcome(gs, g.Miss)
		}
		events = append(events, types.Event{
			Type: "gamble",
			Data: map[string]any{"effect": eff.Name, "chance": g.Chance, "hit": hit},
		})
	}

	return events
}

// applyOutcome applies one outcome bundle.
func applyOutcome(gs *state.GameState, o types.Outcome) {
	state.Apply(gs, o.Delta)

	if o.Rest > 0 {
		gs.Stats.SleepDebt -= o.Rest
		if gs.Stats.SleepDebt < 0 {
			gs.Stats.SleepDebt = 0
		}
	}
	if o.Treat {
		gs.Stats.InjuryFlag = false
	}

	switch o.Latch {
	case types.LatchScandal:
		gs.Stats.ScandalFlag = true
	case types.LatchGoodDeal:
		gs.Stats.SignedGoodDeal = true
	case types.LatchBadDeal:
		gs.Stats.SignedBadDeal = true
	}

	if o.Log != "" {
		gs.AppendLog(o.Log)
	}
}

func meets(s types.Stats, requires []types.Threshold) bool {
	for _, th := range requires {
		v, ok := state.StatValue(s, th.Stat)
		if !ok || v < th.Min {
			return false
		}
	}
	return true
}

func moveTo(gs *state.GameState, sceneID string) types.Event {
	from := gs.Scene
	gs.Scene = sceneID
	return types.Event{
		Type: "scene_changed",
		Data: map[string]any{"from": from, "to": sceneID},
	}
}

// end makes the state terminal with the ending named by id.
func end(gs *state.GameState, graph *state.Graph, id string) types.Event {
	e, ok := graph.Endings[id]
	if !ok {
		e = types.Ending{ID: id, Title: id}
	}
	gs.End(e)
	return types.Event{
		Type: "ended",
		Data: map[string]any{"ending": id, "week": gs.Stats.Week},
	}
}
