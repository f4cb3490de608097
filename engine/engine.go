// Package engine provides the Step() orchestrator that looks up the chosen
// option in the current scene and dispatches its effect against the state.
package engine

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/lastrep/engine/effects"
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

// ErrNilGraph is returned by New when no scene graph is supplied.
var ErrNilGraph = errors.New("engine: nil scene graph")

// RecentLogSize is the number of log lines RecentLog returns.
const RecentLogSize = 3

// Meta action log lines.
const (
	LookLog      = "You take it in again. The details sharpen."
	EndedMessage = "The season is over. Press r to restart or q to quit."
)

// Engine holds the scene graph and the mutable state of one playthrough.
type Engine struct {
	Graph  *state.Graph
	State  *state.GameState
	Logger *zap.Logger
}

// New creates an engine positioned at the graph's start scene. A nil logger
// is replaced by a no-op logger.
func New(graph *state.Graph, seed int64, logger *zap.Logger) (*Engine, error) {
	if graph == nil {
		return nil, ErrNilGraph
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{Graph: graph, Logger: logger}
	e.Restart(seed)
	return e, nil
}

// Restart discards the current playthrough and starts a new one from the
// start scene with a fresh RNG stream.
func (e *Engine) Restart(seed int64) {
	e.State = state.New(e.Graph.Game.Start, seed)
	e.Logger.Info("playthrough started",
		zap.Int64("seed", seed),
		zap.String("scene", e.State.Scene),
	)
}

// Step processes one choice key and returns the result. Keys that match no
// choice in the current scene are ignored and leave the state untouched.
func (e *Engine) Step(key string) types.Result {
	result := types.Result{Key: key}

	// 0. Game over: only restart or quit make sense now.
	if e.State.Ended {
		result.Ignored = true
		result.Output = []string{EndedMessage}
		return result
	}

	// 1. Find the choice.
	choice, ok := e.choice(strings.TrimSpace(key))
	if !ok {
		result.Ignored = true
		e.Logger.Debug("key ignored",
			zap.String("scene", e.State.Scene),
			zap.String("key", key),
		)
		return result
	}

	// 2. Record the input.
	e.State.Turn++
	e.State.Keys = append(e.State.Keys, choice.Key)

	// 3. Apply the effect.
	from := e.State.Scene
	logged := e.State.Logged
	eff := choice.Effect
	result.Effect = &eff
	result.Events = effects.Apply(e.State, e.Graph, eff)
	result.Output = e.linesSince(logged)

	e.Logger.Debug("step",
		zap.String("scene", from),
		zap.String("key", choice.Key),
		zap.String("effect", eff.Name),
		zap.String("kind", string(eff.Kind)),
		zap.Int("week", e.State.Stats.Week),
		zap.Int64("rng_position", e.State.RNG.Position()),
	)

	if e.State.Ended {
		e.Logger.Info("playthrough ended",
			zap.String("ending", e.State.Ending.ID),
			zap.Int("week", e.State.Stats.Week),
			zap.Int("turns", e.State.Turn),
			zap.Int64("seed", e.State.Seed),
		)
	}

	return result
}

// Look re-examines the current scene. It only appends a log line.
func (e *Engine) Look() types.Result {
	return e.meta("l", LookLog)
}

// Inventory lists what the player carries. It only appends a log line.
func (e *Engine) Inventory() types.Result {
	msg := "Inventory: (nothing)"
	if len(e.State.Inventory) > 0 {
		msg = "Inventory: " + strings.Join(e.State.Inventory, ", ")
	}
	return e.meta("i", msg)
}

func (e *Engine) meta(key, msg string) types.Result {
	if e.State.Ended {
		return types.Result{Key: key, Ignored: true, Output: []string{EndedMessage}}
	}
	e.State.AppendLog(msg)
	return types.Result{Key: key, Output: []string{msg}}
}

// Scene returns the current scene. The zero Scene is returned if the id is
// not in the graph, which a validated graph never allows.
func (e *Engine) Scene() types.Scene {
	return e.Graph.Scenes[e.State.Scene]
}

// Art returns the ASCII art of the current scene, or "".
func (e *Engine) Art() string {
	return e.Graph.Art[e.Scene().Art]
}

// RecentLog returns the last few log lines, oldest first.
func (e *Engine) RecentLog() []string {
	return e.State.RecentLog(RecentLogSize)
}

// Ended reports whether the playthrough is over.
func (e *Engine) Ended() bool {
	return e.State.Ended
}

// Ending returns a copy of the ending, or nil while the playthrough runs.
func (e *Engine) Ending() *types.Ending {
	if e.State.Ending == nil {
		return nil
	}
	end := *e.State.Ending
	end.Lines = append([]string(nil), end.Lines...)
	return &end
}

// Snapshot is a read-only copy of the observable state.
type Snapshot struct {
	Scene       string
	Stats       types.Stats
	Log         []string
	Flags       map[string]bool
	Ended       bool
	Ending      string
	Seed        int64
	Turn        int
	Keys        []string
	RNGPosition int64
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	gs := e.State
	snap := Snapshot{
		Scene:       gs.Scene,
		Stats:       gs.Stats,
		Log:         append([]string(nil), gs.Log...),
		Flags:       make(map[string]bool, len(gs.Flags)),
		Ended:       gs.Ended,
		Seed:        gs.Seed,
		Turn:        gs.Turn,
		Keys:        append([]string(nil), gs.Keys...),
		RNGPosition: gs.RNG.Position(),
	}
	for k, v := range gs.Flags {
		snap.Flags[k] = v
	}
	if gs.Ending != nil {
		snap.Ending = gs.Ending.ID
	}
	return snap
}

func (e *Engine) choice(key string) (types.Choice, bool) {
	for _, c := range e.Scene().Choices {
		if c.Key == key {
			return c, true
		}
	}
	return types.Choice{}, false
}

// linesSince returns the log lines appended after the counter read before.
func (e *Engine) linesSince(before int) []string {
	n := e.State.Logged - before
	if n <= 0 {
		return nil
	}
	return e.State.RecentLog(n)
}
