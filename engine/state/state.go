// Package state owns the mutable playthrough state and the immutable scene
// graph it is played against.
package state

import (
	"sort"

	"github.com/nathoo/lastrep/engine/rng"
	"github.com/nathoo/lastrep/types"
)

// MaxLog is the number of log entries a GameState retains.
const MaxLog = 6

// Graph holds the immutable content compiled from Lua. It is built once and
// shared read-only by every playthrough.
type Graph struct {
	Game    types.GameDef
	Scenes  map[string]types.Scene
	Endings map[string]types.Ending
	Art     map[string]string

	// Warnings are non-fatal content problems found while loading.
	Warnings []string
}

// GameState is the complete mutable state of one playthrough.
type GameState struct {
	Scene     string
	Stats     types.Stats
	RNG       *rng.RNG
	Log       []string
	Logged    int // log lines ever appended, including evicted ones
	Flags     map[string]bool
	Inventory []string // reserved, never filled by current content

	Ended  bool
	Ending *types.Ending

	Seed int64
	Turn int      // accepted choice inputs
	Keys []string // accepted choice keys, in order
}

// DefaultStats returns the stats every playthrough starts with.
func DefaultStats() types.Stats {
	return types.Stats{
		Week:       1,
		Stamina:    70,
		Injury:     10,
		Confidence: 55,
		Reputation: 5,
		Cash:       120,
	}
}

// New creates a fresh playthrough at the given start scene with its own
// RNG stream seeded from seed.
func New(start string, seed int64) *GameState {
	return &GameState{
		Scene:     start,
		Stats:     DefaultStats(),
		RNG:       rng.New(seed),
		Log:       []string{},
		Flags:     map[string]bool{},
		Inventory: []string{},
		Seed:      seed,
		Keys:      []string{},
	}
}

// AppendLog adds a message, dropping the oldest entries beyond MaxLog.
func (gs *GameState) AppendLog(msg string) {
	gs.Log = append(gs.Log, msg)
	gs.Logged++
	if len(gs.Log) > MaxLog {
		gs.Log = append([]string(nil), gs.Log[len(gs.Log)-MaxLog:]...)
	}
}

// RecentLog returns a copy of the last n log entries, oldest first.
func (gs *GameState) RecentLog(n int) []string {
	if n > len(gs.Log) {
		n = len(gs.Log)
	}
	if n <= 0 {
		return []string{}
	}
	return append([]string(nil), gs.Log[len(gs.Log)-n:]...)
}

// GetFlag returns the value of a flag. Unset flags return false.
func (gs *GameState) GetFlag(name string) bool {
	return gs.Flags[name]
}

// End makes the state terminal with a copy of the ending. A state that has
// already ended keeps its first ending.
func (gs *GameState) End(e types.Ending) {
	if gs.Ended {
		return
	}
	lines := append([]string(nil), e.Lines...)
	gs.Ended = true
	gs.Ending = &types.Ending{ID: e.ID, Title: e.Title, Lines: lines}
}

// Clamp bounds n to [low, high].
func Clamp(n, low, high int) int {
	if n < low {
		return low
	}
	if n > high {
		return high
	}
	return n
}

// Apply adds every field of d to the stats, then clamps stamina, injury,
// confidence and reputation into [0,100]. Nothing else is touched.
func Apply(gs *GameState, d types.Delta) {
	s := &gs.Stats
	s.Week += d.Week
	s.Stamina += d.Stamina
	s.Injury += d.Injury
	s.Confidence += d.Confidence
	s.Reputation += d.Reputation
	s.Cash += d.Cash
	s.MentorTrust += d.MentorTrust
	s.AgentInterest += d.AgentInterest
	s.TapeStudy += d.TapeStudy
	s.SleepDebt += d.SleepDebt
	clampStats(s)
}

func clampStats(s *types.Stats) {
	s.Stamina = Clamp(s.Stamina, 0, 100)
	s.Injury = Clamp(s.Injury, 0, 100)
	s.Confidence = Clamp(s.Confidence, 0, 100)
	s.Reputation = Clamp(s.Reputation, 0, 100)
}

// ApplyNamed applies a name-keyed delta. Names that are not stats are
// skipped and returned so the caller may warn about them.
func ApplyNamed(gs *GameState, deltas map[string]int) []string {
	d, unknown := DeltaFromNamed(deltas)
	Apply(gs, d)
	return unknown
}

// statFields maps stat names to accessors on Delta and Stats.
var statFields = map[string]struct {
	delta func(*types.Delta) *int
	stat  func(*types.Stats) *int
}{
	"week":           {func(d *types.Delta) *int { return &d.Week }, func(s *types.Stats) *int { return &s.Week }},
	"stamina":        {func(d *types.Delta) *int { return &d.Stamina }, func(s *types.Stats) *int { return &s.Stamina }},
	"injury":         {func(d *types.Delta) *int { return &d.Injury }, func(s *types.Stats) *int { return &s.Injury }},
	"confidence":     {func(d *types.Delta) *int { return &d.Confidence }, func(s *types.Stats) *int { return &s.Confidence }},
	"reputation":     {func(d *types.Delta) *int { return &d.Reputation }, func(s *types.Stats) *int { return &s.Reputation }},
	"cash":           {func(d *types.Delta) *int { return &d.Cash }, func(s *types.Stats) *int { return &s.Cash }},
	"mentor_trust":   {func(d *types.Delta) *int { return &d.MentorTrust }, func(s *types.Stats) *int { return &s.MentorTrust }},
	"agent_interest": {func(d *types.Delta) *int { return &d.AgentInterest }, func(s *types.Stats) *int { return &s.AgentInterest }},
	"tape_study":     {func(d *types.Delta) *int { return &d.TapeStudy }, func(s *types.Stats) *int { return &s.TapeStudy }},
	"sleep_debt":     {func(d *types.Delta) *int { return &d.SleepDebt }, func(s *types.Stats) *int { return &s.SleepDebt }},
}

// DeltaFromNamed converts a name-keyed delta into a Delta. Unknown names are
// returned sorted.
func DeltaFromNamed(deltas map[string]int) (types.Delta, []string) {
	var d types.Delta
	var unknown []string
	for name, v := range deltas {
		f, ok := statFields[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		*f.delta(&d) += v
	}
	sort.Strings(unknown)
	return d, unknown
}

// IsStat reports whether name is a numeric stat.
func IsStat(name string) bool {
	_, ok := statFields[name]
	return ok
}

// StatValue returns the current value of a named numeric stat.
func StatValue(s types.Stats, name string) (int, bool) {
	f, ok := statFields[name]
	if !ok {
		return 0, false
	}
	return *f.stat(&s), true
}

// StatNames returns the numeric stat names, sorted.
func StatNames() []string {
	names := make([]string, 0, len(statFields))
	for name := range statFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
