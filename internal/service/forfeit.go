package service

import (
	"time"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// Forfeit marks a side as having given up. Forfeiting an already-finished
// battle or an already-out side is an idempotent no-op; the returned bool
// reports whether anything changed. A forfeit that leaves at most one side
// standing aborts the battle, with the last side standing recorded as the
// winner for the reward layer.
func Forfeit(b *game.Battle, sideID, participant string) (bool, error) {
	if b.Status.Terminal() {
		return false, nil
	}
	side := b.Side(sideID)
	if side == nil {
		return false, ErrSideNotFound
	}
	if side.Scripted {
		return false, ErrScriptedSide
	}
	if participant != "" && side.Participant != participant {
		return false, ErrNotParticipant
	}
	if side.Forfeited || side.Defeated {
		return false, nil
	}

	side.Forfeited = true
	side.Defeated = true
	side.Pending = nil
	b.Record(game.Event{Kind: game.EventForfeit, Side: side.ID})

	if b.Status == game.StatusForming {
		// Nobody to fight yet; disband instead of picking a winner.
		b.Status = game.StatusAborted
		b.Winner = ""
		b.Message = "The battle was disbanded before it started."
		b.ActionDeadline = time.Time{}
		b.Record(game.Event{Kind: game.EventBattleEnded, Detail: "disbanded"})
		return true, nil
	}

	remaining := make([]*game.Side, 0, len(b.Sides))
	for i := range b.Sides {
		if !b.Sides[i].Defeated {
			remaining = append(remaining, &b.Sides[i])
		}
	}
	switch len(remaining) {
	case 0:
		b.Status = game.StatusAborted
		b.Winner = ""
		b.Message = "Every side forfeited the battle."
		b.ActionDeadline = time.Time{}
		b.Record(game.Event{Kind: game.EventBattleEnded, Detail: "forfeit"})
	case 1:
		b.Status = game.StatusAborted
		b.Winner = remaining[0].ID
		b.Message = sideName(remaining[0]) + " wins by forfeit."
		b.ActionDeadline = time.Time{}
		b.Record(game.Event{Kind: game.EventBattleEnded, Side: remaining[0].ID, Detail: "forfeit"})
	}
	return true, nil
}
