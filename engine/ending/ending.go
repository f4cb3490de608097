// Package ending decides when a playthrough is over and which ending it
// receives. It returns ending ids; titles and lines live in the content.
package ending

import (
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

// Ending ids.
const (
	CareerHalted    = "career_halted"
	QuietExit       = "quiet_exit"
	HeadlineScandal = "headline_scandal"
	BigLeap         = "big_leap"
	WorkingPro      = "working_pro"
	MentorLineage   = "mentor_lineage"
	CultFavorite    = "cult_favorite"
	TooMuchTooSoon  = "too_much_too_soon"
	ResetSeason     = "reset_season"
)

// JitterRange bounds the random term added to the performance score.
const JitterRange = 2

// IDs returns every ending id the resolver can produce.
func IDs() []string {
	return []string{
		CareerHalted, QuietExit, HeadlineScandal,
		BigLeap, WorkingPro, MentorLineage, CultFavorite, TooMuchTooSoon, ResetSeason,
	}
}

// Early runs the early-exit checks in priority order and returns the first
// ending that applies.
func Early(s types.Stats) (string, bool) {
	switch {
	case s.Injury >= 90:
		return CareerHalted, true
	case s.Confidence <= 10 && s.Reputation < 20:
		return QuietExit, true
	case s.ScandalFlag:
		return HeadlineScandal, true
	}
	return "", false
}

// Score computes the showcase performance score.
func Score(s types.Stats, jitter int) int {
	score := s.Stamina/10 + s.Confidence/10 + s.Reputation/10 + s.TapeStudy/3
	score -= s.Injury / 12
	score -= s.SleepDebt
	return score + jitter
}

// Verdict is the result of resolving the showcase.
type Verdict struct {
	Ending string
	Score  int
	Jitter int
	Scored bool // false when a scandal short-circuited scoring
}

// Finale resolves the showcase. A scandal defers to the early-exit checks
// without drawing; otherwise one jitter value is drawn and the score is
// branched on.
func Finale(gs *state.GameState) Verdict {
	s := gs.Stats
	if s.ScandalFlag {
		id, _ := Early(s)
		return Verdict{Ending: id}
	}

	jitter := gs.RNG.IntRange(-JitterRange, JitterRange)
	score := Score(s, jitter)
	return Verdict{Ending: Branch(s, score), Score: score, Jitter: jitter, Scored: true}
}

// Branch maps a performance score to an ending id.
func Branch(s types.Stats, score int) string {
	switch {
	case score >= 18 && s.Injury < 70:
		return BigLeap
	case score >= 14 && s.Injury < 80:
		return WorkingPro
	case score >= 10:
		if s.MentorTrust >= 3 {
			return MentorLineage
		}
		return CultFavorite
	case s.Injury >= 75:
		return TooMuchTooSoon
	default:
		return ResetSeason
	}
}
