package service

import (
	"time"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// AnyRealAction reports whether any human side submitted an action for the
// current turn. Scripted picks and injected fallbacks do not count; the
// idle-expiry logic cares about participant activity only.
func AnyRealAction(b *game.Battle) bool {
	for i := range b.Sides {
		s := &b.Sides[i]
		if s.Defeated || s.Scripted {
			continue
		}
		if s.Pending != nil && s.Pending.Turn == b.Turn && !s.Pending.Fallback {
			return true
		}
	}
	return false
}

// FillTimedOut injects the fallback action for every side that missed the
// deadline, so the turn can resolve with a full action set. Returns the
// sides that were filled.
func FillTimedOut(b *game.Battle) []string {
	if b.Status != game.StatusAwaiting {
		return nil
	}
	var filled []string
	for i := range b.Sides {
		side := &b.Sides[i]
		if side.Defeated || side.Pending != nil {
			continue
		}
		side.Pending = &game.PendingAction{
			Move:     game.StruggleName,
			Target:   game.TargetRef{Kind: game.TargetOpponent},
			Turn:     b.Turn,
			Fallback: true,
		}
		filled = append(filled, side.ID)
		b.Record(game.Event{Kind: game.EventTimeout, Side: side.ID, Detail: "deadline missed"})
	}
	return filled
}

// Expire abandons a battle whose participants stopped responding for too
// many consecutive deadlines. No turn is resolved and no winner declared.
func Expire(b *game.Battle) {
	if b.Status.Terminal() {
		return
	}
	b.Status = game.StatusExpired
	b.Winner = ""
	b.Message = "The battle expired after repeated inactivity."
	b.ActionDeadline = time.Time{}
	for i := range b.Sides {
		b.Sides[i].Pending = nil
	}
	b.Record(game.Event{Kind: game.EventBattleEnded, Detail: "expired"})
}
