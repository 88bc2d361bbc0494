package engine

import (
	"strings"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// executePlans runs the ordered plans. Actors that fainted earlier in the
// turn lose their action; sides defeated earlier keep theirs skipped too.
func (tc *turnContext) executePlans(plans []plannedAction) {
	for i := range plans {
		p := &plans[i]
		if p.side.Defeated || p.actor.Fainted {
			continue
		}
		tc.execAction(p)
	}
}

// execAction applies the pre-action gates in fixed order, then the move.
// The gate order matters: replays must consume identical draws, so sleep
// and recharge (no roll) are checked before paralysis and confusion.
func (tc *turnContext) execAction(p *plannedAction) {
	actor := p.actor
	if !p.known {
		tc.emit(game.Event{Kind: game.EventActionSkipped, Side: p.side.ID, Combatant: actor.Species, Move: p.side.Pending.Move, Detail: "unknown move"})
		return
	}
	if actor.HasStatus(game.Sleep) {
		tc.emit(game.Event{Kind: game.EventActionSkipped, Side: p.side.ID, Combatant: actor.Species, Status: string(game.Sleep), Detail: "fast asleep"})
		return
	}
	if actor.HasStatus(game.Exhausted) {
		tc.emit(game.Event{Kind: game.EventActionSkipped, Side: p.side.ID, Combatant: actor.Species, Status: string(game.Exhausted), Detail: "must recharge"})
		return
	}
	if actor.HasStatus(game.Paralysis) && tc.rng.Roll(tc.balance().ParalysisLockChance) {
		tc.emit(game.Event{Kind: game.EventActionSkipped, Side: p.side.ID, Combatant: actor.Species, Status: string(game.Paralysis), Detail: "fully paralyzed"})
		return
	}
	if actor.HasStatus(game.Confusion) && tc.rng.Roll(tc.balance().ConfusionSelfHitChance) {
		tc.confusionSelfHit(p)
		return
	}

	// A use is spent on every attempt, hits and misses alike.
	if slot := actor.Slot(p.move.Name); slot != nil && slot.UsesLeft > 0 {
		slot.UsesLeft--
	}
	detail := ""
	if p.fallback {
		detail = "deadline fallback"
	}
	tc.emit(game.Event{Kind: game.EventMoveUsed, Side: p.side.ID, Combatant: actor.Species, Move: p.move.Name, Detail: detail})

	// Accuracy is rolled once per action, not once per target.
	if p.move.Accuracy < 100 && !tc.rng.Roll(float64(p.move.Accuracy)/100.0) {
		tc.emit(game.Event{Kind: game.EventMoveMissed, Side: p.side.ID, Combatant: actor.Species, Move: p.move.Name})
		return
	}

	switch p.move.Target {
	case game.TargetSelf:
		tc.applySecondary(p, p.side, actor)
	case game.TargetAllOpponents:
		struck := false
		for i := range tc.b.Sides {
			s := &tc.b.Sides[i]
			if s == p.side || s.Defeated {
				continue
			}
			t := s.ActiveCombatant()
			if t == nil || t.Fainted {
				continue
			}
			struck = true
			tc.strike(p, s, t)
			if p.actor.Fainted {
				break
			}
		}
		if !struck {
			tc.emit(game.Event{Kind: game.EventMoveMissed, Side: p.side.ID, Combatant: actor.Species, Move: p.move.Name, Detail: "no target"})
		}
	default:
		s := tc.resolveTargetSide(p)
		if s == nil {
			tc.emit(game.Event{Kind: game.EventMoveMissed, Side: p.side.ID, Combatant: actor.Species, Move: p.move.Name, Detail: "no target"})
			return
		}
		tc.strike(p, s, s.ActiveCombatant())
	}
}

// resolveTargetSide picks the side a single-target move hits. An empty
// target side means "the sole opponent" and falls through to the first
// opposing side that still has a standing active combatant.
func (tc *turnContext) resolveTargetSide(p *plannedAction) *game.Side {
	if p.target.Side != "" {
		s := tc.b.Side(p.target.Side)
		if s == nil || s == p.side || s.Defeated {
			return nil
		}
		if t := s.ActiveCombatant(); t == nil || t.Fainted {
			return nil
		}
		return s
	}
	for i := range tc.b.Sides {
		s := &tc.b.Sides[i]
		if s == p.side || s.Defeated {
			continue
		}
		if t := s.ActiveCombatant(); t != nil && !t.Fainted {
			return s
		}
	}
	return nil
}

// strike applies one move against one target: damage, recoil and secondary
// effects. Immunity negates everything including secondaries.
func (tc *turnContext) strike(p *plannedAction, tside *game.Side, target *game.Combatant) {
	if !p.move.Damaging() {
		tc.applySecondary(p, tside, target)
		return
	}
	dmg, crit, eff := tc.damageRoll(p.actor, target, p.move)
	if eff == 0 {
		tc.emit(game.Event{Kind: game.EventDamageDealt, Side: tside.ID, Combatant: target.Species, Move: p.move.Name, Amount: 0, Detail: "no effect"})
		return
	}
	tc.emit(game.Event{Kind: game.EventDamageDealt, Side: tside.ID, Combatant: target.Species, Move: p.move.Name, Amount: dmg, Detail: hitDetail(crit, eff)})
	tc.applyDamage(tside, target, dmg)
	if p.move.RecoilDivisor > 0 && dmg > 0 {
		rec := dmg / p.move.RecoilDivisor
		if rec < 1 {
			rec = 1
		}
		tc.emit(game.Event{Kind: game.EventRecoilTaken, Side: p.side.ID, Combatant: p.actor.Species, Move: p.move.Name, Amount: rec})
		tc.applyDamage(p.side, p.actor, rec)
	}
	if !target.Fainted && !p.move.Effect.Empty() {
		tc.applySecondary(p, tside, target)
	}
}

// damageRoll runs the damage formula: level-scaled base, critical roll,
// type effectiveness, then the variance roll. The critical roll happens
// before effectiveness and variance are applied, and independently of the
// variance draw. A non-immune hit always deals at least 1.
func (tc *turnContext) damageRoll(actor, target *game.Combatant, move game.MoveDef) (int, bool, float64) {
	eff := tc.tbl.Chart.Multiplier(move.Type, tc.speciesTypes(target))
	if eff == 0 {
		return 0, false, 0
	}
	bal := tc.balance()
	atk := tc.effectiveAttack(actor)
	def := tc.effectiveDefense(target)
	dmg := ((2*actor.Level/5+2)*move.Power*atk/def)/50 + 2
	crit := tc.rng.Roll(bal.CritChance)
	if crit {
		dmg = int(float64(dmg) * bal.CritMultiplier)
	}
	dmg = int(float64(dmg) * eff)
	dmg = dmg * tc.rng.Between(bal.VarianceMin, bal.VarianceMax) / 100
	if dmg < 1 {
		dmg = 1
	}
	return dmg, crit, eff
}

// confusionSelfHit replaces the actor's action with a typeless hit against
// itself. No critical or effectiveness applies; variance does.
func (tc *turnContext) confusionSelfHit(p *plannedAction) {
	bal := tc.balance()
	actor := p.actor
	atk := tc.effectiveAttack(actor)
	def := tc.effectiveDefense(actor)
	dmg := ((2*actor.Level/5+2)*bal.ConfusionSelfHitPower*atk/def)/50 + 2
	dmg = dmg * tc.rng.Between(bal.VarianceMin, bal.VarianceMax) / 100
	if dmg < 1 {
		dmg = 1
	}
	tc.emit(game.Event{Kind: game.EventSelfHit, Side: p.side.ID, Combatant: actor.Species, Status: string(game.Confusion), Amount: dmg, Detail: "hurt itself in confusion"})
	tc.applyDamage(p.side, actor, dmg)
}

// applyDamage mutates HP and handles the faint transition. Fainting clears
// statuses and stages; reserve promotion happens at end of turn.
func (tc *turnContext) applyDamage(side *game.Side, c *game.Combatant, amount int) {
	c.HP -= amount
	if c.HP <= 0 {
		c.HP = 0
		c.Fainted = true
		c.Statuses = nil
		c.Stages = game.StageSet{}
		tc.emit(game.Event{Kind: game.EventFainted, Side: side.ID, Combatant: c.Species})
	}
}

func hitDetail(crit bool, eff float64) string {
	parts := make([]string, 0, 2)
	if crit {
		parts = append(parts, "critical hit")
	}
	switch {
	case eff > 1:
		parts = append(parts, "super effective")
	case eff < 1:
		parts = append(parts, "not very effective")
	}
	return strings.Join(parts, ", ")
}
