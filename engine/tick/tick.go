// Package tick implements the weekly side-effect pass that runs after every
// time-consuming choice.
package tick

import (
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

const (
	// WeeklyCost is the cash spent every week.
	WeeklyCost = 15

	// FlareMinInjury is the injury level below which a flare cannot latch.
	FlareMinInjury = 35

	tiredStamina   = 35
	confidenceHigh = 52
	confidenceLow  = 48
)

// Log lines written by the tick.
const (
	FlareLog = "A sharp ache returns. You feel a limit approaching."
	BillsLog = "Bills press in. Stress tightens your body."
)

// FlareChance returns the probability of an injury flare for the given stats.
func FlareChance(s types.Stats) float64 {
	return 0.02 + float64(s.Injury)/200.0 + float64(s.SleepDebt)*0.03
}

// Advance moves the playthrough forward one week and applies fatigue, the
// injury flare check, confidence mean reversion and weekly costs, in that
// order. It draws from the RNG at most once.
func Advance(gs *state.GameState) []types.Event {
	s := &gs.Stats
	var events []types.Event

	// 1. Week.
	s.Week++
	events = append(events, types.Event{
		Type: "week_advanced",
		Data: map[string]any{"week": s.Week},
	})

	// 2. Sleep debt drifts with stamina.
	if s.Stamina < tiredStamina {
		s.SleepDebt++
	} else if s.SleepDebt > 0 {
		s.SleepDebt--
	}

	// 3. Injury flare. One-shot: never re-rolled once latched.
	if !s.InjuryFlag {
		chance := FlareChance(*s)
		if gs.RNG.Float64() < chance && s.Injury >= FlareMinInjury {
			s.InjuryFlag = true
			gs.AppendLog(FlareLog)
			events = append(events, types.Event{
				Type: "injury_flare",
				Data: map[string]any{"injury": s.Injury, "chance": chance},
			})
		}
	}

	// 4. Confidence drifts toward 50 outside the 48-52 band.
	if s.Confidence > confidenceHigh {
		s.Confidence--
	} else if s.Confidence < confidenceLow {
		s.Confidence++
	}

	// 5. Weekly costs.
	s.Cash -= WeeklyCost
	if s.Cash < 0 {
		state.Apply(gs, types.Delta{Confidence: -2, Injury: 2})
		gs.AppendLog(BillsLog)
		events = append(events, types.Event{
			Type: "bills",
			Data: map[string]any{"cash": s.Cash},
		})
	}

	return events
}
