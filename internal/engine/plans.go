package engine

import (
	"sort"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// --- Planned action model ----------------------------------------------
type plannedAction struct {
	sideIdx  int
	side     *game.Side
	actor    *game.Combatant
	move     game.MoveDef
	known    bool
	target   game.TargetRef
	fallback bool

	// Ordering keys are captured once when plans are built, so stat
	// changes during the turn do not reshuffle later actions.
	priority int
	speed    int
}

// buildPlans converts stored side actions into an ordered execution list.
// Order is priority (desc), then effective speed at turn start (desc), then
// side position (asc) so equal plans resolve the same way on every replay.
func (tc *turnContext) buildPlans() []plannedAction {
	plans := make([]plannedAction, 0, len(tc.b.Sides))
	for i := range tc.b.Sides {
		side := &tc.b.Sides[i]
		if side.Defeated || side.Pending == nil {
			continue
		}
		actor := side.ActiveCombatant()
		if actor == nil || actor.Fainted {
			continue
		}
		move, ok := tc.tbl.MoveByName(side.Pending.Move)
		p := plannedAction{
			sideIdx:  i,
			side:     side,
			actor:    actor,
			move:     move,
			known:    ok,
			target:   side.Pending.Target,
			fallback: side.Pending.Fallback,
			priority: move.Priority,
			speed:    tc.effectiveSpeed(actor),
		}
		plans = append(plans, p)
	}

	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].priority != plans[j].priority {
			return plans[i].priority > plans[j].priority
		}
		if plans[i].speed != plans[j].speed {
			return plans[i].speed > plans[j].speed
		}
		return plans[i].sideIdx < plans[j].sideIdx
	})
	return plans
}
