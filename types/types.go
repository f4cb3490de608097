// Package types defines the shared data structures for the lastrep engine.
// This package contains only type definitions, no logic.
package types

// Stats is the per-playthrough attribute record.
type Stats struct {
	Week       int
	Stamina    int // 0-100
	Injury     int // 0-100
	Confidence int // 0-100
	Reputation int // 0-100
	Cash       int // unclamped, may go negative

	MentorTrust   int
	AgentInterest int
	TapeStudy     int
	SleepDebt     int

	InjuryFlag     bool
	SignedBadDeal  bool
	SignedGoodDeal bool
	ScandalFlag    bool
}

// Delta is a partial update to Stats. A zero field means no change.
type Delta struct {
	Week       int
	Stamina    int
	Injury     int
	Confidence int
	Reputation int
	Cash       int

	MentorTrust   int
	AgentInterest int
	TapeStudy     int
	SleepDebt     int
}

// Latch names a one-shot boolean on Stats that an outcome may set.
type Latch string

const (
	LatchNone     Latch = ""
	LatchScandal  Latch = "scandal"
	LatchGoodDeal Latch = "good_deal"
	LatchBadDeal  Latch = "bad_deal"
)

// Outcome is the bundle of mutations an effect applies before its
// kind-specific step.
type Outcome struct {
	Delta Delta
	Rest  int   // reduces SleepDebt, never below zero
	Treat bool  // clears InjuryFlag
	Latch Latch // one-shot latch to set
	Log   string
}

// Gamble draws once after the base outcome and applies Hit or Miss.
type Gamble struct {
	Chance float64 // probability of Hit, in [0,1]
	Hit    Outcome
	Miss   Outcome
}

// Branch replaces the base outcome with Else when Flag is not set.
type Branch struct {
	Flag string
	Else Outcome
}

// Threshold requires a named stat to be at least Min.
type Threshold struct {
	Stat string
	Min  int
}

// Assess sets Flag to whether every threshold holds.
type Assess struct {
	Flag     string
	Requires []Threshold
}

// EffectKind is the closed set of effect behaviors.
type EffectKind string

const (
	KindAdvance EffectKind = "advance" // outcome, then tick and route
	KindAssess  EffectKind = "assess"  // set a flag from thresholds, no time passes
	KindGoto    EffectKind = "goto"    // jump to Target, no time passes
	KindEnd     EffectKind = "end"     // terminate with Ending
	KindFinale  EffectKind = "finale"  // outcome, then resolve the finale
)

// Effect is a data description of what a Choice does.
type Effect struct {
	Kind    EffectKind
	Name    string
	Outcome Outcome
	Branch  *Branch // optional
	Gamble  *Gamble // optional
	Assess  *Assess // KindAssess only
	Target  string  // KindGoto only
	Ending  string  // KindEnd only
}

// Choice is a keyed, labeled option within a Scene.
type Choice struct {
	Key    string
	Label  string
	Effect Effect
}

// Scene is a narrative node.
type Scene struct {
	ID      string
	Title   string
	Art     string // key into the graph's art table
	Text    []string
	Choices []Choice
}

// Ending is a terminal payload.
type Ending struct {
	ID    string
	Title string
	Lines []string
}

// GameDef holds game metadata from content.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Start   string // starting scene ID
}

// Event is emitted while an effect or tick runs.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single engine step.
type Result struct {
	Key     string
	Effect  *Effect // nil when the key matched no choice
	Ignored bool    // true when the key was not a choice in the current scene
	Events  []Event
	Output  []string // log lines appended during the step
}
