package service

import (
	"github.com/Killerdash117/veramon-reunited-sub000/internal/engine"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// ScriptedPicks chooses an action for every scripted side at turn open, so
// battle readiness only ever waits on humans. Picks draw from the battle
// stream and the draw counter is synced afterwards, which keeps recovered
// battles replaying the same choices.
func ScriptedPicks(tbl *game.Tables, b *game.Battle, rng *engine.Stream) {
	if b.Status != game.StatusAwaiting {
		return
	}
	for i := range b.Sides {
		side := &b.Sides[i]
		if !side.Scripted || side.Defeated || side.Pending != nil {
			continue
		}
		active := side.ActiveCombatant()
		if active == nil || active.Fainted {
			continue
		}
		pick := game.StruggleName
		if usable := active.UsableMoves(); len(usable) > 0 {
			pick = usable[rng.Intn(len(usable))]
		}
		side.Pending = &game.PendingAction{
			Move:   pick,
			Target: game.TargetRef{Kind: game.TargetOpponent},
			Turn:   b.Turn,
		}
	}
	b.RandDraws = rng.Draws()
}
