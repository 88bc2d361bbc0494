package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/keys"
)

var (
	ErrUnknownKind          = errors.New("unknown battle kind")
	ErrSideCount            = errors.New("side count not allowed for this battle kind")
	ErrWildNeedsScripted    = errors.New("wild battles need exactly one scripted side")
	ErrScriptedNotAllowed   = errors.New("scripted sides are only allowed in wild battles")
	ErrScriptedSeatOpen     = errors.New("scripted sides cannot have a participant")
	ErrRosterSize           = errors.New("roster size out of range")
	ErrUnknownSpecies       = errors.New("unknown species")
	ErrUnknownMove          = errors.New("unknown move")
	ErrMoveNotLearnable     = errors.New("species cannot learn that move")
	ErrTooManyMoves         = errors.New("too many moves for one combatant")
	ErrDuplicateParticipant = errors.New("participant already seated in this battle")
	ErrNoParticipant        = errors.New("participant required")
	ErrNotForming           = errors.New("battle is not accepting joins")
	ErrBattleFull           = errors.New("battle has no open seat")
)

// SideSpec describes one requested seat. An empty Participant on a
// non-scripted spec creates an open seat that a later join fills; the
// roster is then supplied by the joiner.
type SideSpec struct {
	Participant string
	Scripted    bool
	Roster      []RosterSpec
}

// RosterSpec is one requested roster entry. Level zero falls back to the
// default level; an empty move list takes the first learnable moves.
type RosterSpec struct {
	Species string
	Level   int
	Moves   []string
}

// NewBattle validates the request and assembles the initial battle state.
// Battles with a full seat list start immediately; battles with open seats
// stay in forming until joins complete them. The caller supplies identity,
// seed and clock so this stays deterministic and testable.
func NewBattle(tbl *game.Tables, id string, kind game.BattleKind, specs []SideSpec, seed int64, now time.Time) (*game.Battle, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	if err := checkSeatPlan(kind, specs); err != nil {
		return nil, err
	}

	b := &game.Battle{
		ID:        id,
		Kind:      kind,
		Turn:      0,
		Status:    game.StatusForming,
		CreatedAt: now,
		RandSeed:  seed,
		Message:   "Waiting for all sides to join.",
	}
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if spec.Participant != "" {
			if seen[spec.Participant] {
				return nil, ErrDuplicateParticipant
			}
			seen[spec.Participant] = true
		}
		side, err := buildSide(tbl, i, spec)
		if err != nil {
			return nil, err
		}
		b.Sides = append(b.Sides, side)
	}

	b.Record(game.Event{Kind: game.EventBattleCreated, Detail: string(kind)})
	for i := range b.Sides {
		if !b.Sides[i].Open() {
			b.Record(game.Event{Kind: game.EventSideJoined, Side: b.Sides[i].ID, Detail: sideName(&b.Sides[i])})
		}
	}
	StartBattle(b)
	return b, nil
}

// checkSeatPlan applies the per-kind seating rules.
func checkSeatPlan(kind game.BattleKind, specs []SideSpec) error {
	scripted := 0
	for _, s := range specs {
		if s.Scripted {
			scripted++
			if s.Participant != "" {
				return ErrScriptedSeatOpen
			}
		}
	}
	switch kind {
	case game.KindDuel:
		if len(specs) != 2 {
			return ErrSideCount
		}
		if scripted != 0 {
			return ErrScriptedNotAllowed
		}
	case game.KindFreeForAll:
		if len(specs) < game.MinSides || len(specs) > game.MaxSides {
			return ErrSideCount
		}
		if scripted != 0 {
			return ErrScriptedNotAllowed
		}
	case game.KindWild:
		if len(specs) != 2 {
			return ErrSideCount
		}
		if scripted != 1 {
			return ErrWildNeedsScripted
		}
		// The human seat must be taken up front; wild encounters are
		// never advertised for joining.
		for _, s := range specs {
			if !s.Scripted && s.Participant == "" {
				return ErrNoParticipant
			}
		}
	}
	return nil
}

func buildSide(tbl *game.Tables, idx int, spec SideSpec) (game.Side, error) {
	side := game.Side{
		ID:          fmt.Sprintf("side-%d", idx+1),
		Participant: spec.Participant,
		Scripted:    spec.Scripted,
	}
	if side.Open() {
		if len(spec.Roster) != 0 {
			return side, ErrNoParticipant
		}
		return side, nil
	}
	roster, err := buildRoster(tbl, spec.Roster)
	if err != nil {
		return side, err
	}
	side.Roster = roster
	side.Active = 0
	return side, nil
}

func buildRoster(tbl *game.Tables, specs []RosterSpec) ([]game.Combatant, error) {
	if len(specs) == 0 || len(specs) > game.MaxRosterSize {
		return nil, ErrRosterSize
	}
	roster := make([]game.Combatant, 0, len(specs))
	for _, rs := range specs {
		c, err := buildCombatant(tbl, rs)
		if err != nil {
			return nil, err
		}
		roster = append(roster, c)
	}
	return roster, nil
}

func buildCombatant(tbl *game.Tables, rs RosterSpec) (game.Combatant, error) {
	var c game.Combatant
	sp, ok := tbl.SpeciesByName(keys.NameKey(rs.Species))
	if !ok {
		return c, fmt.Errorf("%w: %s", ErrUnknownSpecies, rs.Species)
	}
	level := rs.Level
	if level <= 0 {
		level = game.DefaultLevel
	}

	names := keys.NameKeys(rs.Moves)
	if len(names) == 0 {
		names = sp.Learnset
		if len(names) > game.MaxMoves {
			names = names[:game.MaxMoves]
		}
	}
	if len(names) > game.MaxMoves {
		return c, ErrTooManyMoves
	}
	slots := make([]game.MoveSlot, 0, len(names))
	for _, name := range names {
		def, ok := tbl.MoveByName(name)
		if !ok || name == game.StruggleName {
			return c, fmt.Errorf("%w: %s", ErrUnknownMove, name)
		}
		if !learnable(sp, name) {
			return c, fmt.Errorf("%w: %s cannot learn %s", ErrMoveNotLearnable, sp.Name, name)
		}
		slots = append(slots, game.MoveSlot{Name: name, UsesLeft: def.Uses})
	}

	maxHP, stats := game.DeriveStats(sp, level)
	c = game.Combatant{
		Species: sp.Name,
		Level:   level,
		HP:      maxHP,
		MaxHP:   maxHP,
		Stats:   stats,
		Moves:   slots,
	}
	return c, nil
}

func learnable(sp game.Species, move string) bool {
	for _, m := range sp.Learnset {
		if m == move {
			return true
		}
	}
	return false
}

// JoinBattle seats a participant at the first open seat of a forming
// battle. When the last seat fills the battle starts.
func JoinBattle(tbl *game.Tables, b *game.Battle, participant string, roster []RosterSpec) error {
	if b.Status != game.StatusForming {
		return ErrNotForming
	}
	if participant == "" {
		return ErrNoParticipant
	}
	for i := range b.Sides {
		if b.Sides[i].Participant == participant {
			return ErrDuplicateParticipant
		}
	}
	seat := b.OpenSeat()
	if seat == nil {
		return ErrBattleFull
	}
	built, err := buildRoster(tbl, roster)
	if err != nil {
		return err
	}
	seat.Participant = participant
	seat.Roster = built
	seat.Active = 0
	b.Record(game.Event{Kind: game.EventSideJoined, Side: seat.ID, Detail: participant})
	StartBattle(b)
	return nil
}

// StartBattle moves a fully seated battle into its first turn. It is a
// no-op while seats remain open.
func StartBattle(b *game.Battle) {
	if b.Status != game.StatusForming || b.OpenSeat() != nil {
		return
	}
	b.Status = game.StatusAwaiting
	b.Turn = 1
	b.Message = "The battle has started. Choose your actions."
	b.Record(game.Event{Kind: game.EventBattleStarted})
	b.Record(game.Event{Kind: game.EventTurnOpened})
}

// sideName renders a seat owner for journal entries.
func sideName(s *game.Side) string {
	if s.Scripted {
		if len(s.Roster) > 0 {
			return "wild " + s.Roster[0].Species
		}
		return "wild"
	}
	return s.Participant
}
