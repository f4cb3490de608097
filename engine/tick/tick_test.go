package tick

import (
	"testing"

	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

func TestAdvance_WeekAndCash(t *testing.T) {
	gs := state.New("gym", 1)
	Advance(gs)

	if gs.Stats.Week != 2 {
		t.Errorf("Week = %d, want 2", gs.Stats.Week)
	}
	if gs.Stats.Cash != 105 {
		t.Errorf("Cash = %d, want 105", gs.Stats.Cash)
	}
}

func TestAdvance_SleepDebtDrift(t *testing.T) {
	tests := []struct {
		stamina, debt, want int
	}{
		{stamina: 34, debt: 0, want: 1},
		{stamina: 0, debt: 4, want: 5},
		{stamina: 35, debt: 3, want: 2},
		{stamina: 80, debt: 0, want: 0},
	}
	for _, tt := range tests {
		gs := state.New("gym", 1)
		gs.Stats.Stamina = tt.stamina
		gs.Stats.SleepDebt = tt.debt
		Advance(gs)
		if gs.Stats.SleepDebt != tt.want {
			t.Errorf("stamina %d debt %d: SleepDebt = %d, want %d",
				tt.stamina, tt.debt, gs.Stats.SleepDebt, tt.want)
		}
	}
}

func TestAdvance_ConfidenceMeanReversion(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{61, 60},
		{53, 52},
		{52, 52},
		{50, 50},
		{48, 48},
		{47, 48},
		{0, 1},
	}
	for _, tt := range tests {
		gs := state.New("gym", 1)
		gs.Stats.Confidence = tt.in
		Advance(gs)
		if gs.Stats.Confidence != tt.want {
			t.Errorf("confidence %d -> %d, want %d", tt.in, gs.Stats.Confidence, tt.want)
		}
	}
}

func TestAdvance_BillsPenalty(t *testing.T) {
	gs := state.New("gym", 1)
	gs.Stats.Cash = 10
	gs.Stats.Confidence = 50
	gs.Stats.Injury = 20

	events := Advance(gs)

	if gs.Stats.Cash != -5 {
		t.Errorf("Cash = %d, want -5", gs.Stats.Cash)
	}
	if gs.Stats.Confidence != 48 {
		t.Errorf("Confidence = %d, want 48", gs.Stats.Confidence)
	}
	if gs.Stats.Injury != 22 {
		t.Errorf("Injury = %d, want 22", gs.Stats.Injury)
	}
	if len(gs.Log) == 0 || gs.Log[len(gs.Log)-1] != BillsLog {
		t.Errorf("expected bills log line, got %v", gs.Log)
	}
	if !hasEvent(events, "bills") {
		t.Error("expected bills event")
	}
}

func TestAdvance_BillsPenaltyIsClamped(t *testing.T) {
	gs := state.New("gym", 1)
	gs.Stats.Cash = 0
	gs.Stats.Confidence = 1
	gs.Stats.Injury = 99

	Advance(gs)

	// Mean reversion takes confidence 1 -> 2, the penalty then floors at 0.
	if gs.Stats.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0", gs.Stats.Confidence)
	}
	if gs.Stats.Injury != 100 {
		t.Errorf("Injury = %d, want 100", gs.Stats.Injury)
	}
}

func TestAdvance_FlareLatches(t *testing.T) {
	gs := state.New("gym", 1)
	gs.Stats.Injury = 100
	gs.Stats.SleepDebt = 40 // chance well above 1

	events := Advance(gs)

	if !gs.Stats.InjuryFlag {
		t.Fatal("expected injury flag to latch")
	}
	if !hasEvent(events, "injury_flare") {
		t.Error("expected injury_flare event")
	}
	if gs.Log[0] != FlareLog {
		t.Errorf("log = %v, want flare line first", gs.Log)
	}
}

func TestAdvance_FlareNeedsInjuryFloor(t *testing.T) {
	gs := state.New("gym", 1)
	gs.Stats.Injury = FlareMinInjury - 1
	gs.Stats.SleepDebt = 40

	Advance(gs)

	if gs.Stats.InjuryFlag {
		t.Error("flare should not latch below the injury floor")
	}
	if gs.RNG.Position() != 1 {
		t.Errorf("expected one draw, got %d", gs.RNG.Position())
	}
}

func TestAdvance_LatchedFlagSkipsDraw(t *testing.T) {
	gs := state.New("gym", 1)
	gs.Stats.InjuryFlag = true
	gs.Stats.Injury = 100

	Advance(gs)

	if gs.RNG.Position() != 0 {
		t.Errorf("expected no draw with latched flag, got %d", gs.RNG.Position())
	}
	if !gs.Stats.InjuryFlag {
		t.Error("tick must never clear the injury flag")
	}
}

func TestFlareChance(t *testing.T) {
	gs := state.New("gym", 1)
	gs.Stats.Injury = 40
	gs.Stats.SleepDebt = 2

	got := FlareChance(gs.Stats)
	want := 0.02 + 0.2 + 0.06
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("FlareChance = %v, want %v", got, want)
	}
}

func hasEvent(events []types.Event, name string) bool {
	for _, e := range events {
		if e.Type == name {
			return true
		}
	}
	return false
}
