package service

import (
	"errors"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/keys"
)

var (
	ErrNotAwaitingActions = errors.New("battle is not awaiting actions")
	ErrSideNotFound       = errors.New("side not found in battle")
	ErrNotParticipant     = errors.New("participant does not control that side")
	ErrScriptedSide       = errors.New("side is scripted")
	ErrSideOut            = errors.New("side is already out of the battle")
	ErrStaleTurn          = errors.New("action references a different turn")
	ErrDuplicateAction    = errors.New("action already submitted for this turn")
	ErrMoveNotUsable      = errors.New("move not usable by the active combatant")
	ErrBadTarget          = errors.New("invalid target")
)

// ActionRequest is one side's move choice for the current turn. Participant
// is matched against the seat owner; Turn guards against submissions racing
// a resolution.
type ActionRequest struct {
	SideID      string
	Participant string
	Move        string
	Target      game.TargetRef
	Turn        int
}

// SubmitMove validates and stores an action. It does not resolve the turn;
// the caller checks readiness afterwards. The accepted request resets the
// battle's idle counter, and the stored move is not echoed into the journal
// so opponents cannot read it before resolution.
func SubmitMove(tbl *game.Tables, b *game.Battle, req ActionRequest) error {
	if b.Status != game.StatusAwaiting {
		return ErrNotAwaitingActions
	}
	side := b.Side(req.SideID)
	if side == nil {
		return ErrSideNotFound
	}
	if side.Scripted {
		return ErrScriptedSide
	}
	if req.Participant != "" && side.Participant != req.Participant {
		return ErrNotParticipant
	}
	if side.Defeated {
		return ErrSideOut
	}
	if req.Turn != b.Turn {
		return ErrStaleTurn
	}
	if side.Pending != nil {
		return ErrDuplicateAction
	}

	active := side.ActiveCombatant()
	if active == nil || active.Fainted {
		return ErrSideOut
	}
	move := keys.NameKey(req.Move)
	def, ok := tbl.MoveByName(move)
	if !ok {
		return ErrMoveNotUsable
	}
	if move == game.StruggleName {
		// The fallback move is only an explicit choice when nothing else
		// has uses left.
		if len(active.UsableMoves()) > 0 {
			return ErrMoveNotUsable
		}
	} else {
		slot := active.Slot(move)
		if slot == nil || slot.UsesLeft == 0 {
			return ErrMoveNotUsable
		}
	}

	target := req.Target
	if err := checkTarget(b, side, def, &target); err != nil {
		return err
	}

	side.Pending = &game.PendingAction{Move: move, Target: target, Turn: b.Turn}
	b.IdleTimeouts = 0
	b.Record(game.Event{Kind: game.EventActionStored, Side: side.ID})
	return nil
}

// checkTarget validates the submitted target against the move's targeting
// mode and normalizes it. A single-opponent move with no side named picks
// the sole opponent; with several opponents standing the caller must name
// one.
func checkTarget(b *game.Battle, side *game.Side, def game.MoveDef, t *game.TargetRef) error {
	if t.Kind != "" && t.Kind != def.Target {
		return ErrBadTarget
	}
	t.Kind = def.Target
	switch def.Target {
	case game.TargetSelf, game.TargetAllOpponents:
		if t.Side != "" {
			return ErrBadTarget
		}
	case game.TargetOpponent:
		if t.Side == "" {
			sole := ""
			for i := range b.Sides {
				o := &b.Sides[i]
				if o.ID == side.ID || o.Defeated {
					continue
				}
				if sole != "" {
					return ErrBadTarget
				}
				sole = o.ID
			}
			if sole == "" {
				return ErrBadTarget
			}
			t.Side = sole
			return nil
		}
		o := b.Side(t.Side)
		if o == nil || o.ID == side.ID || o.Defeated {
			return ErrBadTarget
		}
	}
	return nil
}
