// Package route picks the next scene after a week has passed.
package route

import (
	"github.com/nathoo/lastrep/engine/state"
)

// Scene ids the policy can produce.
const (
	Mentor   = "mentor"
	Agent    = "agent"
	Clinic   = "clinic"
	Showcase = "showcase"
	Locker   = "locker"
	Gym      = "gym"
	Track    = "track"
)

// Milestone weeks.
const (
	MentorWeek   = 3
	AgentWeek    = 5
	ClinicWeek   = 8
	ShowcaseWeek = 10
)

// defaultWeights favors the gym over the track 55 to 45.
var defaultWeights = []int{55, 45}

// Targets returns every scene id Next can return. The loader checks each
// of them against the graph.
func Targets() []string {
	return []string{Mentor, Agent, Clinic, Showcase, Locker, Gym, Track}
}

// Next returns the scene the player is routed to. The first matching rule
// wins; only the final fallback draws from the RNG.
func Next(gs *state.GameState) string {
	s := gs.Stats

	switch {
	case s.Week == MentorWeek:
		return Mentor
	case s.Week == AgentWeek:
		return Agent
	case s.Week == ClinicWeek && (s.InjuryFlag || s.Injury >= 45):
		return Clinic
	case s.Week >= ShowcaseWeek:
		return Showcase
	case s.Stamina < 30 || s.Injury >= 55:
		return Locker
	}

	if gs.RNG.WeightedSelect(defaultWeights) == 0 {
		return Gym
	}
	return Track
}
