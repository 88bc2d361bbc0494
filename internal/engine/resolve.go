package engine

import (
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// promoteReserves brings the next able roster member onto the field for
// every side whose active combatant fainted this turn. Promoted combatants
// enter clean; stages and statuses never follow a fainted predecessor.
func (tc *turnContext) promoteReserves() {
	for i := range tc.b.Sides {
		side := &tc.b.Sides[i]
		if side.Defeated {
			continue
		}
		active := side.ActiveCombatant()
		if active != nil && !active.Fainted {
			continue
		}
		next := side.NextAbleIndex()
		if next < 0 {
			continue
		}
		side.Active = next
		tc.emit(game.Event{Kind: game.EventSwitchedIn, Side: side.ID, Combatant: side.Roster[next].Species})
	}
}

// finalizeTurn marks defeated sides, evaluates victory and either ends the
// battle or opens the next turn.
func (tc *turnContext) finalizeTurn() {
	b := tc.b
	for i := range b.Sides {
		side := &b.Sides[i]
		if side.Defeated {
			continue
		}
		if !side.Able() {
			side.Defeated = true
			tc.emit(game.Event{Kind: game.EventSideDefeated, Side: side.ID})
		}
	}
	for i := range b.Sides {
		b.Sides[i].Pending = nil
	}
	tc.emit(game.Event{Kind: game.EventTurnResolved})

	remaining := make([]*game.Side, 0, len(b.Sides))
	for i := range b.Sides {
		if !b.Sides[i].Defeated {
			remaining = append(remaining, &b.Sides[i])
		}
	}
	switch len(remaining) {
	case 0:
		b.Status = game.StatusCompleted
		b.Winner = ""
		b.Message = "No side has a battle-ready Veramon left. The battle ends in a draw."
		tc.emit(game.Event{Kind: game.EventBattleEnded, Detail: "draw"})
	case 1:
		b.Status = game.StatusCompleted
		b.Winner = remaining[0].ID
		b.Message = "Victory for " + sideName(remaining[0])
		tc.emit(game.Event{Kind: game.EventBattleEnded, Side: remaining[0].ID, Detail: "victory"})
	default:
		// next turn
		b.Turn++
		b.Status = game.StatusAwaiting
		b.Message = "New turn. Choose your actions."
		tc.emit(game.Event{Kind: game.EventTurnOpened})
	}
}

// sideName renders a side for battle messages.
func sideName(s *game.Side) string {
	if s.Scripted {
		if len(s.Roster) > 0 {
			return "the wild " + s.Roster[0].Species
		}
		return "the wild side"
	}
	return s.Participant
}

// ResolveTurn is the main entry point for resolving one battle turn. It
// expects every able side to have a stored action for the current turn;
// it mutates the battle in place and returns the events produced. The
// caller owns persistence, so the draw counter is synced before returning
// and the snapshot pins the random stream position.
func ResolveTurn(b *game.Battle, tbl *game.Tables, rng *Stream) []game.Event {
	if b.Status != game.StatusAwaiting || !b.AllReady() {
		return nil
	}
	b.Status = game.StatusResolving
	tc := newTurnContext(b, tbl, rng)

	plans := tc.buildPlans()
	tc.executePlans(plans)
	tc.endOfTurnStatuses()
	tc.promoteReserves()
	tc.finalizeTurn()

	b.RandDraws = rng.Draws()
	return tc.batch
}
