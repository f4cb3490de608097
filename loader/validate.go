package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/lastrep/engine/ending"
	"github.com/nathoo/lastrep/engine/route"
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

// MaxChoices is the number of choices a scene may offer.
const MaxChoices = 4

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known effect kinds.
var validKinds = map[types.EffectKind]bool{
	types.KindAdvance: true,
	types.KindAssess:  true,
	types.KindGoto:    true,
	types.KindEnd:     true,
	types.KindFinale:  true,
}

// Known latches.
var validLatches = map[types.Latch]bool{
	types.LatchNone:     true,
	types.LatchScandal:  true,
	types.LatchGoodDeal: true,
	types.LatchBadDeal:  true,
}

// validate checks the compiled graph for referential integrity. Warnings
// from compilation are carried on the graph when it is valid.
func validate(g *state.Graph, warnings []string) error {
	ve := &ValidationError{Warnings: warnings}

	// Game title required.
	if g.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.Title is required")
	}

	// Start scene exists.
	if g.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.Start is required")
	} else if _, ok := g.Scenes[g.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start scene %q not found in defined scenes", g.Game.Start))
	}

	// Every scene the routing policy can produce exists.
	for _, id := range route.Targets() {
		if _, ok := g.Scenes[id]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"routing target scene %q is not defined", id))
		}
	}

	// Every ending the resolver can produce exists.
	for _, id := range ending.IDs() {
		if _, ok := g.Endings[id]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"resolver ending %q is not defined", id))
		}
	}

	// Scenes, in a stable order so messages are reproducible.
	ids := make([]string, 0, len(g.Scenes))
	for id := range g.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		validateScene(g.Scenes[id], g, ve)
	}

	// Warnings: endings with no title.
	for id, e := range g.Endings {
		if e.Title == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("ending %q has no title", id))
		}
	}
	sort.Strings(ve.Warnings)

	if len(ve.Errors) > 0 {
		return ve
	}
	g.Warnings = ve.Warnings
	return nil
}

func validateScene(scene types.Scene, g *state.Graph, ve *ValidationError) {
	if scene.Art != "" {
		if _, ok := g.Art[scene.Art]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"scene %q references undefined art %q", scene.ID, scene.Art))
		}
	}

	if len(scene.Choices) == 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("scene %q has no choices", scene.ID))
	}
	if len(scene.Choices) > MaxChoices {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"scene %q has %d choices, at most %d allowed", scene.ID, len(scene.Choices), MaxChoices))
	}

	keys := map[string]bool{}
	for _, c := range scene.Choices {
		where := fmt.Sprintf("scene %q choice %q", scene.ID, c.Key)
		switch {
		case c.Key == "":
			ve.Errors = append(ve.Errors, fmt.Sprintf("scene %q has a choice with no key", scene.ID))
		case len(strings.Fields(c.Key)) != 1 || strings.TrimSpace(c.Key) != c.Key:
			ve.Errors = append(ve.Errors, where+": key must be a single token")
		case keys[c.Key]:
			ve.Errors = append(ve.Errors, where+": duplicate key")
		}
		keys[c.Key] = true

		validateEffect(c.Effect, where, g, ve)
	}
}

func validateEffect(eff types.Effect, where string, g *state.Graph, ve *ValidationError) {
	if !validKinds[eff.Kind] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"%s: unknown effect kind %q", where, eff.Kind))
		return
	}

	validateOutcome(eff.Outcome, where, ve)

	switch eff.Kind {
	case types.KindGoto:
		if _, ok := g.Scenes[eff.Target]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: goto points to undefined scene %q", where, eff.Target))
		}
	case types.KindEnd:
		if _, ok := g.Endings[eff.Ending]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: end references undefined ending %q", where, eff.Ending))
		}
	case types.KindAssess:
		if eff.Assess == nil || eff.Assess.Flag == "" {
			ve.Errors = append(ve.Errors, where+": assess needs a flag")
			break
		}
		for _, th := range eff.Assess.Requires {
			if !state.IsStat(th.Stat) {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s: assess threshold names unknown stat %q", where, th.Stat))
			}
		}
	}

	if gm := eff.Gamble; gm != nil {
		if gm.Chance < 0 || gm.Chance > 1 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: gamble chance %v outside [0,1]", where, gm.Chance))
		}
		validateOutcome(gm.Hit, where, ve)
		validateOutcome(gm.Miss, where, ve)
	}

	if b := eff.Branch; b != nil {
		if b.Flag == "" {
			ve.Errors = append(ve.Errors, where+": branch needs a flag")
		}
		validateOutcome(b.Else, where, ve)
	}

	// Only advance and finale run the branch and gamble prelude.
	if eff.Kind != types.KindAdvance && eff.Kind != types.KindFinale {
		if eff.Gamble != nil || eff.Branch != nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s: %s effect ignores gamble and branch", where, eff.Kind))
		}
	}
}

func validateOutcome(o types.Outcome, where string, ve *ValidationError) {
	if !validLatches[o.Latch] {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown latch %q", where, o.Latch))
	}
	if o.Rest < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: rest must not be negative", where))
	}
}
