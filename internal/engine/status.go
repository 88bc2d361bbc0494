package engine

import (
	"fmt"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// applySecondary rolls and applies a move's secondary effect. The status
// part and the stat part roll independently; either may point back at the
// actor via its target field.
func (tc *turnContext) applySecondary(p *plannedAction, tside *game.Side, target *game.Combatant) {
	eff := p.move.Effect
	if eff.Status != "" && tc.rng.Roll(eff.StatusChance) {
		side, who := tside, target
		if eff.StatusTarget == game.TargetSelf {
			side, who = p.side, p.actor
		}
		if !who.Fainted {
			tc.applyStatus(side, who, eff.Status, eff.StatusTurns, p.move.Name)
		}
	}
	if eff.Stat != "" && tc.rng.Roll(eff.StatChance) {
		side, who := tside, target
		if eff.StatTarget == game.TargetSelf {
			side, who = p.side, p.actor
		}
		if !who.Fainted {
			tc.applyStageShift(side, who, eff.Stat, eff.Stages, eff.StatTurns, p.move.Name)
		}
	}
}

// applyStatus attaches a status effect following the per-kind stacking
// rule. Sleep and confusion roll their duration from the balance ranges;
// other kinds take the duration the move specifies (0 = indefinite).
func (tc *turnContext) applyStatus(side *game.Side, c *game.Combatant, kind game.StatusKind, turns int, source string) {
	bal := tc.balance()
	switch kind {
	case game.Sleep:
		turns = tc.rng.Between(bal.SleepTurnsMin, bal.SleepTurnsMax)
	case game.Confusion:
		turns = tc.rng.Between(bal.ConfusionTurnsMin, bal.ConfusionTurnsMax)
	}

	rule := game.RuleFor(kind)
	eff := game.StatusEffect{Kind: kind, TurnsLeft: turns, SourceMove: source}
	switch rule.Stack {
	case game.StackRefresh:
		if cur := c.StatusOf(kind); cur != nil {
			cur.TurnsLeft = turns
			cur.SourceMove = source
			tc.emit(game.Event{Kind: game.EventStatusApplied, Side: side.ID, Combatant: c.Species, Status: string(kind), Move: source, Amount: turns, Detail: "refreshed"})
			return
		}
		c.Statuses = append(c.Statuses, eff)
	case game.StackIndependent:
		n := 0
		for i := range c.Statuses {
			if c.Statuses[i].Kind == kind {
				n++
			}
		}
		if n >= rule.MaxStacks {
			tc.emit(game.Event{Kind: game.EventStatusBlocked, Side: side.ID, Combatant: c.Species, Status: string(kind), Detail: "stack limit"})
			return
		}
		c.Statuses = append(c.Statuses, eff)
	default: // StackReplace
		if cur := c.StatusOf(kind); cur != nil {
			*cur = eff
			tc.emit(game.Event{Kind: game.EventStatusApplied, Side: side.ID, Combatant: c.Species, Status: string(kind), Move: source, Amount: turns, Detail: "replaced"})
			return
		}
		c.Statuses = append(c.Statuses, eff)
	}
	tc.emit(game.Event{Kind: game.EventStatusApplied, Side: side.ID, Combatant: c.Species, Status: string(kind), Move: source, Amount: turns})
}

// applyStageShift moves a stat stage. With turns == 0 the shift lasts until
// the combatant leaves the field; with turns > 0 a stat_shift status is
// installed that reverts the applied delta when it expires. The recorded
// delta is the clamped one, so expiry restores exactly the stage that was
// changed.
func (tc *turnContext) applyStageShift(side *game.Side, c *game.Combatant, stat string, delta, turns int, source string) {
	ptr := c.Stages.StageOf(stat)
	if ptr == nil || delta == 0 {
		return
	}
	if turns > 0 {
		rule := game.RuleFor(game.StatShift)
		n := 0
		for i := range c.Statuses {
			if c.Statuses[i].Kind == game.StatShift {
				n++
			}
		}
		if n >= rule.MaxStacks {
			tc.emit(game.Event{Kind: game.EventStatusBlocked, Side: side.ID, Combatant: c.Species, Status: string(game.StatShift), Detail: "stack limit"})
			return
		}
	}
	old := *ptr
	*ptr = game.ClampStage(old + delta)
	applied := *ptr - old
	if applied == 0 {
		tc.emit(game.Event{Kind: game.EventStatusBlocked, Side: side.ID, Combatant: c.Species, Status: string(game.StatShift), Detail: stat + " cannot go further"})
		return
	}
	if turns > 0 {
		c.Statuses = append(c.Statuses, game.StatusEffect{
			Kind:       game.StatShift,
			TurnsLeft:  turns,
			SourceMove: source,
			Stat:       stat,
			Stages:     applied,
		})
	}
	tc.emit(game.Event{Kind: game.EventStageChanged, Side: side.ID, Combatant: c.Species, Move: source, Amount: applied, Detail: stat})
}

// endOfTurnStatuses runs the fixed end-of-turn sequence for every standing
// combatant: damage-over-time ticks first (burn before poison, poison
// stacks in application order), then one duration decrement per timed
// effect, then removal of effects that reached zero this turn.
func (tc *turnContext) endOfTurnStatuses() {
	for si := range tc.b.Sides {
		side := &tc.b.Sides[si]
		if side.Defeated {
			continue
		}
		for ci := range side.Roster {
			c := &side.Roster[ci]
			if c.Fainted || len(c.Statuses) == 0 {
				continue
			}
			tc.tickDamageOverTime(side, c, game.Burn, tc.balance().BurnTickDivisor)
			if !c.Fainted {
				tc.tickDamageOverTime(side, c, game.Poison, tc.balance().PoisonTickDivisor)
			}
			if !c.Fainted {
				tc.expireStatuses(side, c)
			}
		}
	}
}

// tickDamageOverTime applies one tick per instance of the given kind.
// Fainting from a tick clears the remaining statuses, so processing stops.
func (tc *turnContext) tickDamageOverTime(side *game.Side, c *game.Combatant, kind game.StatusKind, divisor int) {
	if divisor <= 0 {
		return
	}
	ticks := 0
	for i := range c.Statuses {
		if c.Statuses[i].Kind == kind {
			ticks++
		}
	}
	for t := 0; t < ticks && !c.Fainted; t++ {
		dmg := c.MaxHP / divisor
		if dmg < 1 {
			dmg = 1
		}
		tc.emit(game.Event{Kind: game.EventStatusTicked, Side: side.ID, Combatant: c.Species, Status: string(kind), Amount: dmg})
		tc.applyDamage(side, c, dmg)
	}
}

// expireStatuses decrements timed effects and drops the ones that reach
// zero, reverting stat_shift deltas as they go. The indefinite sentinel
// never decrements.
func (tc *turnContext) expireStatuses(side *game.Side, c *game.Combatant) {
	kept := c.Statuses[:0]
	for _, st := range c.Statuses {
		if st.Indefinite() {
			kept = append(kept, st)
			continue
		}
		st.TurnsLeft--
		if st.TurnsLeft > 0 {
			kept = append(kept, st)
			continue
		}
		if st.Kind == game.StatShift {
			if ptr := c.Stages.StageOf(st.Stat); ptr != nil {
				*ptr = game.ClampStage(*ptr - st.Stages)
				tc.emit(game.Event{Kind: game.EventStageChanged, Side: side.ID, Combatant: c.Species, Amount: -st.Stages, Detail: fmt.Sprintf("%s restored", st.Stat)})
			}
		}
		tc.emit(game.Event{Kind: game.EventStatusExpired, Side: side.ID, Combatant: c.Species, Status: string(st.Kind)})
	}
	c.Statuses = kept
}
