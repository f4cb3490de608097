package sim

import (
	"fmt"

	"github.com/nathoo/lastrep/engine/rng"
	"github.com/nathoo/lastrep/types"
)

// Policy names a choice strategy.
type Policy string

const (
	PolicyRandom   Policy = "random"   // uniform over the scene's choices
	PolicyCautious Policy = "cautious" // favors recovery and avoids no-progress choices
)

// Policies lists the known policies.
func Policies() []Policy {
	return []Policy{PolicyRandom, PolicyCautious}
}

type chooser func(choices []types.Choice, s types.Stats, r *rng.RNG) types.Choice

func (p Policy) chooser() (chooser, error) {
	switch p {
	case PolicyRandom, "":
		return chooseRandom, nil
	case PolicyCautious:
		return chooseCautious, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, p)
	}
}

func chooseRandom(choices []types.Choice, _ types.Stats, r *rng.RNG) types.Choice {
	return choices[r.IntRange(0, len(choices)-1)]
}

// chooseCautious picks the highest-scoring choice. Ties are broken by the
// policy stream.
func chooseCautious(choices []types.Choice, s types.Stats, r *rng.RNG) types.Choice {
	best := []int{}
	bestScore := 0
	for i, ch := range choices {
		score := cautiousScore(ch.Effect, s)
		switch {
		case len(best) == 0 || score > bestScore:
			best = []int{i}
			bestScore = score
		case score == bestScore:
			best = append(best, i)
		}
	}
	if len(best) == 1 {
		return choices[best[0]]
	}
	return choices[best[r.IntRange(0, len(best)-1)]]
}

func cautiousScore(eff types.Effect, s types.Stats) int {
	switch eff.Kind {
	case types.KindEnd:
		return -1000
	case types.KindAssess, types.KindGoto:
		return -500
	}

	out := eff.Outcome
	d := out.Delta
	score := d.Stamina + d.Confidence + d.Reputation - 2*d.Injury + 5*out.Rest
	if s.Stamina < 35 {
		score += d.Stamina
	}
	if s.Cash < 40 {
		score += d.Cash / 10
	}
	if out.Treat && s.InjuryFlag {
		score += 30
	}
	switch out.Latch {
	case types.LatchGoodDeal:
		score += 20
	case types.LatchBadDeal:
		score -= 20
	case types.LatchScandal:
		score -= 40
	}
	if eff.Gamble != nil && eff.Gamble.Hit.Latch == types.LatchScandal {
		score -= 40
	}
	return score
}
