package engine

import (
	"errors"
	"testing"

	"github.com/nathoo/lastrep/engine/ending"
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/loader"
	"github.com/nathoo/lastrep/types"
)

// testGraph builds a two-scene game: a hub that goes to a room, and a room
// whose choices log, end, or idle.
func testGraph() *state.Graph {
	return &state.Graph{
		Game: types.GameDef{Title: "Test Game", Start: "hub"},
		Scenes: map[string]types.Scene{
			"hub": {
				ID:    "hub",
				Title: "Hub",
				Art:   "box",
				Choices: []types.Choice{
					{Key: "1", Label: "Go to the room.", Effect: types.Effect{Kind: types.KindGoto, Target: "room"}},
				},
			},
			"room": {
				ID:    "room",
				Title: "Room",
				Choices: []types.Choice{
					{Key: "1", Label: "Think.", Effect: types.Effect{
						Kind: types.KindAssess, Name: "think",
						Outcome: types.Outcome{Log: "You think."},
						Assess:  &types.Assess{Flag: "thought"},
					}},
					{Key: "2", Label: "Leave.", Effect: types.Effect{Kind: types.KindEnd, Ending: "gone"}},
				},
			},
		},
		Endings: map[string]types.Ending{
			"gone": {ID: "gone", Title: "GONE", Lines: []string{"You left."}},
		},
		Art: map[string]string{"box": "[ ]"},
	}
}

func newTestEngine(t *testing.T, g *state.Graph, seed int64) *Engine {
	t.Helper()
	e, err := New(g, seed, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func defaultGraph(t *testing.T) *state.Graph {
	t.Helper()
	g, err := loader.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	return g
}

func TestNew_NilGraph(t *testing.T) {
	if _, err := New(nil, 1, nil); !errors.Is(err, ErrNilGraph) {
		t.Errorf("New(nil) error = %v, want ErrNilGraph", err)
	}
}

func TestStep_UnknownKeyIgnored(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)
	before := e.Snapshot()

	for _, key := range []string{"9", "", "x", "1 1"} {
		res := e.Step(key)
		if !res.Ignored {
			t.Errorf("Step(%q).Ignored = false", key)
		}
		if res.Effect != nil {
			t.Errorf("Step(%q).Effect = %+v, want nil", key, res.Effect)
		}
	}

	after := e.Snapshot()
	if after.Scene != before.Scene || after.Stats != before.Stats || after.Turn != 0 || len(after.Log) != 0 {
		t.Errorf("ignored keys changed state: %+v", after)
	}
}

func TestStep_Goto(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)

	res := e.Step("1")
	if res.Ignored {
		t.Fatal("Step(1) ignored")
	}
	if e.Scene().ID != "room" {
		t.Errorf("Scene = %q, want room", e.Scene().ID)
	}
	if e.State.Turn != 1 || len(e.State.Keys) != 1 || e.State.Keys[0] != "1" {
		t.Errorf("Turn = %d, Keys = %v", e.State.Turn, e.State.Keys)
	}
	if e.Snapshot().Stats.Week != 1 {
		t.Error("goto must not advance the week")
	}
}

func TestStep_OutputIsNewLogLines(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)
	e.Step("1")

	for i := 0; i < state.MaxLog+2; i++ {
		res := e.Step("1")
		if len(res.Output) != 1 || res.Output[0] != "You think." {
			t.Fatalf("step %d: Output = %v", i, res.Output)
		}
	}
	if len(e.State.Log) != state.MaxLog {
		t.Errorf("log length = %d, want %d", len(e.State.Log), state.MaxLog)
	}
	if got := e.RecentLog(); len(got) != RecentLogSize {
		t.Errorf("RecentLog length = %d, want %d", len(got), RecentLogSize)
	}
}

func TestStep_EndAndGameOver(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)
	e.Step("1")
	e.Step("2")

	if !e.Ended() {
		t.Fatal("expected the playthrough to end")
	}
	end := e.Ending()
	if end == nil || end.Title != "GONE" {
		t.Fatalf("Ending = %+v", end)
	}
	end.Lines[0] = "mutated"
	if e.Ending().Lines[0] != "You left." {
		t.Error("Ending() must return a copy")
	}

	turn := e.State.Turn
	res := e.Step("1")
	if !res.Ignored || len(res.Output) != 1 || res.Output[0] != EndedMessage {
		t.Errorf("Step after end = %+v", res)
	}
	if e.State.Turn != turn {
		t.Error("Step after end counted a turn")
	}
	if r := e.Look(); !r.Ignored {
		t.Error("Look after end should be ignored")
	}
}

func TestLookAndInventory(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)

	if res := e.Look(); len(res.Output) != 1 || res.Output[0] != LookLog {
		t.Errorf("Look = %+v", res)
	}
	if res := e.Inventory(); res.Output[0] != "Inventory: (nothing)" {
		t.Errorf("Inventory = %+v", res)
	}
	e.State.Inventory = append(e.State.Inventory, "tape", "chalk")
	if res := e.Inventory(); res.Output[0] != "Inventory: tape, chalk" {
		t.Errorf("Inventory = %+v", res)
	}

	if e.State.Turn != 0 || e.State.RNG.Position() != 0 || e.Snapshot().Stats.Week != 1 {
		t.Error("meta actions must not consume turns, draws or time")
	}
	if len(e.RecentLog()) != 3 {
		t.Errorf("RecentLog = %v", e.RecentLog())
	}
}

func TestArt(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)
	if e.Art() != "[ ]" {
		t.Errorf("Art = %q", e.Art())
	}
	e.Step("1")
	if e.Art() != "" {
		t.Errorf("room has no art, got %q", e.Art())
	}
}

func TestRestart(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)
	e.Step("1")
	e.Step("2")

	e.Restart(2)
	snap := e.Snapshot()
	if snap.Ended || snap.Scene != "hub" || snap.Turn != 0 || snap.Seed != 2 {
		t.Errorf("after Restart: %+v", snap)
	}
	if snap.Stats != state.DefaultStats() {
		t.Errorf("stats not reset: %+v", snap.Stats)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	e := newTestEngine(t, testGraph(), 1)
	e.Step("1")
	e.Step("1")

	snap := e.Snapshot()
	snap.Log[0] = "changed"
	snap.Flags["thought"] = false
	snap.Keys[0] = "9"

	if e.State.Log[0] != "You think." || !e.State.Flags["thought"] || e.State.Keys[0] != "1" {
		t.Error("mutating a snapshot changed the engine state")
	}
}

// Built-in content.

func TestScenarioA_TrainHardFromDefaults(t *testing.T) {
	e := newTestEngine(t, defaultGraph(t), 42)
	e.Step("1") // intro -> gym
	res := e.Step("1")

	if res.Effect == nil || res.Effect.Name != "train_hard" {
		t.Fatalf("Effect = %+v, want train_hard", res.Effect)
	}
	s := e.Snapshot().Stats
	if s.Week != 2 || s.Stamina != 52 || s.Injury != 20 || s.Confidence != 60 || s.Cash != 105 {
		t.Errorf("stats = %+v", s)
	}
	if scene := e.Scene().ID; scene != "gym" && scene != "track" {
		t.Errorf("Scene = %q, want gym or track", scene)
	}
}

func TestScenarioC_InjuryEndsImmediately(t *testing.T) {
	e := newTestEngine(t, defaultGraph(t), 3)
	e.Step("1") // gym
	e.State.Stats.Week = 2
	e.State.Stats.Injury = 85

	e.Step("1")

	if !e.Ended() {
		t.Fatal("expected career_halted")
	}
	if e.Ending().ID != ending.CareerHalted || e.Ending().Title != "ENDING: CAREER HALTED" {
		t.Errorf("Ending = %+v", e.Ending())
	}
	if e.Scene().ID != "gym" {
		t.Errorf("Scene = %q, routing should not run after an ending", e.Scene().ID)
	}
}

func TestMeetAgent_DoesNotAdvance(t *testing.T) {
	e := newTestEngine(t, defaultGraph(t), 5)
	e.State.Scene = "agent"
	e.State.Stats.Reputation = 40
	e.State.Stats.AgentInterest = 2

	e.Step("1")

	s := e.Snapshot()
	if s.Scene != "agent" || s.Stats.Week != 1 {
		t.Errorf("meet_agent moved on: scene %q week %d", s.Scene, s.Stats.Week)
	}
	if !s.Flags["agent_offer_good"] {
		t.Error("agent_offer_good should be set")
	}

	e.Step("2")
	if !e.State.Stats.SignedGoodDeal || e.State.Stats.SignedBadDeal {
		t.Errorf("expected a good deal: %+v", e.State.Stats)
	}
}

func TestWithdraw(t *testing.T) {
	e := newTestEngine(t, defaultGraph(t), 5)
	e.State.Scene = "showcase"

	e.Step("2")
	if !e.Ended() || e.Ending().ID != "walk_away" {
		t.Errorf("Ending = %+v, want walk_away", e.Ending())
	}
	if e.State.RNG.Position() != 0 {
		t.Errorf("withdraw drew %d values", e.State.RNG.Position())
	}
}

// playOut drives the built-in game with a fixed key per scene until it ends.
func playOut(t *testing.T, e *Engine) {
	t.Helper()
	keys := map[string]string{"agent": "3", "intro": "1", "rest_scene": "4"}
	for i := 0; i < 100 && !e.Ended(); i++ {
		key, ok := keys[e.Scene().ID]
		if !ok {
			key = "2"
		}
		if res := e.Step(key); res.Ignored {
			t.Fatalf("key %q ignored in %q", key, e.Scene().ID)
		}
	}
	if !e.Ended() {
		t.Fatalf("playthrough did not end: %+v", e.Snapshot())
	}
}

func TestDeterminism(t *testing.T) {
	g := defaultGraph(t)
	for seed := int64(0); seed < 25; seed++ {
		a := newTestEngine(t, g, seed)
		b := newTestEngine(t, g, seed)
		playOut(t, a)
		playOut(t, b)

		sa, sb := a.Snapshot(), b.Snapshot()
		if sa.Ending != sb.Ending || sa.Stats != sb.Stats || sa.RNGPosition != sb.RNGPosition {
			t.Fatalf("seed %d diverged: %+v vs %+v", seed, sa, sb)
		}
		if sa.Stats.Week > 11 {
			t.Errorf("seed %d: ended in week %d", seed, sa.Stats.Week)
		}
	}
}

func TestRestart_ReplaysIdentically(t *testing.T) {
	e := newTestEngine(t, defaultGraph(t), 77)
	playOut(t, e)
	first := e.Snapshot()

	e.Restart(77)
	for _, key := range first.Keys {
		e.Step(key)
	}
	second := e.Snapshot()

	if first.Ending != second.Ending || first.Stats != second.Stats {
		t.Errorf("replay diverged: %+v vs %+v", first, second)
	}
}
