package game

import (
	"fmt"
	"time"
)

// Structural limits for battles. Rosters larger than MaxRosterSize are
// rejected at creation time, not truncated.
const (
	MinSides      = 2
	MaxSides      = 4
	MaxRosterSize = 6
	MaxMoves      = 4
)

// Stage bounds for temporary stat modifiers.
const (
	StageMin = -6
	StageMax = 6
)

// BattleKind is a string alias describing the flavor of an encounter.
// Using a dedicated type instead of plain string makes code safer and
// self-documenting.
type BattleKind string

const (
	KindDuel       BattleKind = "duel"
	KindFreeForAll BattleKind = "free_for_all"
	KindWild       BattleKind = "wild"
)

// Valid reports whether k is one of the supported battle kinds.
func (k BattleKind) Valid() bool {
	switch k {
	case KindDuel, KindFreeForAll, KindWild:
		return true
	}
	return false
}

// BattleStatus tracks the lifecycle of a battle session. Transitions only
// move forward: forming -> awaiting_actions -> resolving -> awaiting_actions
// (next turn) until one of the terminal states is reached.
type BattleStatus string

const (
	StatusForming   BattleStatus = "forming"
	StatusAwaiting  BattleStatus = "awaiting_actions"
	StatusResolving BattleStatus = "resolving"
	StatusCompleted BattleStatus = "completed"
	StatusAborted   BattleStatus = "aborted"
	StatusExpired   BattleStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s BattleStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusAborted, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is a known battle status.
func (s BattleStatus) Valid() bool {
	switch s {
	case StatusForming, StatusAwaiting, StatusResolving,
		StatusCompleted, StatusAborted, StatusExpired:
		return true
	}
	return false
}

// Stats holds the three combat-relevant stats of a Veramon. Hit points are
// tracked separately because current HP diverges from the maximum.
type Stats struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// StageSet tracks temporary stat stages in the range [StageMin, StageMax].
// Stages reset when the combatant leaves the field.
type StageSet struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// MoveSlot is one learned move of a combatant. UsesLeft counts down on every
// attempt (hits and misses alike); a value below zero means unlimited uses.
type MoveSlot struct {
	Name     string `json:"name"`
	UsesLeft int    `json:"uses_left"`
}

// Combatant is a single battle-ready Veramon instance. The species name
// references the species table loaded from the balance configuration.
type Combatant struct {
	Species  string         `json:"species"`
	Level    int            `json:"level"`
	HP       int            `json:"hp"`
	MaxHP    int            `json:"max_hp"`
	Stats    Stats          `json:"stats"`
	Stages   StageSet       `json:"stages"`
	Statuses []StatusEffect `json:"statuses,omitempty"`
	Moves    []MoveSlot     `json:"moves"`
	Fainted  bool           `json:"fainted"`
}

// Slot returns the move slot with the given canonical name, or nil.
func (c *Combatant) Slot(move string) *MoveSlot {
	for i := range c.Moves {
		if c.Moves[i].Name == move {
			return &c.Moves[i]
		}
	}
	return nil
}

// UsableMoves lists the moves that still have uses left.
func (c *Combatant) UsableMoves() []string {
	out := make([]string, 0, len(c.Moves))
	for _, m := range c.Moves {
		if m.UsesLeft != 0 {
			out = append(out, m.Name)
		}
	}
	return out
}

// HasStatus reports whether at least one status of the given kind is active.
func (c *Combatant) HasStatus(kind StatusKind) bool {
	return c.StatusOf(kind) != nil
}

// StatusOf returns the first active status of the given kind, or nil.
func (c *Combatant) StatusOf(kind StatusKind) *StatusEffect {
	for i := range c.Statuses {
		if c.Statuses[i].Kind == kind {
			return &c.Statuses[i]
		}
	}
	return nil
}

// TargetKind describes what a move (or a submitted action) aims at.
type TargetKind string

const (
	TargetOpponent     TargetKind = "opponent"
	TargetAllOpponents TargetKind = "all_opponents"
	TargetSelf         TargetKind = "self"
)

// TargetRef points an action at a side. Side is only meaningful for
// single-opponent targets; an empty Side means "pick the sole opponent"
// and is resolved during turn execution.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	Side string     `json:"side,omitempty"`
}

// PendingAction is a side's stored choice for the current turn. Fallback
// marks actions injected by the deadline handler rather than submitted by
// the participant.
type PendingAction struct {
	Move     string    `json:"move"`
	Target   TargetRef `json:"target"`
	Turn     int       `json:"turn"`
	Fallback bool      `json:"fallback,omitempty"`
}

// Side is one seat in a battle: a participant (or a scripted controller for
// wild encounters) with an ordered roster of combatants. Active indexes the
// roster member currently on the field.
type Side struct {
	ID          string         `json:"id"`
	Participant string         `json:"participant"`
	Scripted    bool           `json:"scripted"`
	Roster      []Combatant    `json:"roster"`
	Active      int            `json:"active"`
	Pending     *PendingAction `json:"pending,omitempty"`
	Defeated    bool           `json:"defeated"`
	Forfeited   bool           `json:"forfeited"`
}

// Open reports whether the seat is still waiting for a participant to join.
func (s *Side) Open() bool { return s.Participant == "" && !s.Scripted }

// ActiveCombatant returns the roster member currently on the field, or nil
// for an open seat.
func (s *Side) ActiveCombatant() *Combatant {
	if s.Active < 0 || s.Active >= len(s.Roster) {
		return nil
	}
	return &s.Roster[s.Active]
}

// Able reports whether the side still has at least one non-fainted combatant
// and has not forfeited.
func (s *Side) Able() bool {
	if s.Forfeited {
		return false
	}
	for i := range s.Roster {
		if !s.Roster[i].Fainted {
			return true
		}
	}
	return false
}

// NextAbleIndex returns the first roster index holding a non-fainted
// combatant, or -1 when the side is out of options.
func (s *Side) NextAbleIndex() int {
	for i := range s.Roster {
		if !s.Roster[i].Fainted {
			return i
		}
	}
	return -1
}

// Battle is the full authoritative state of one battle session. It is the
// unit of persistence: the whole struct is serialized into a snapshot after
// every accepted mutation, so everything needed to resume a battle after a
// restart must live here.
type Battle struct {
	ID        string       `json:"id"`
	Kind      BattleKind   `json:"kind"`
	Sides     []Side       `json:"sides"`
	Turn      int          `json:"turn"`
	Status    BattleStatus `json:"status"`
	Events    []Event      `json:"events"`
	CreatedAt time.Time    `json:"created_at"`

	// CheckpointTurn is the last turn whose snapshot write succeeded.
	CheckpointTurn int `json:"checkpoint_turn"`

	// RandSeed and RandDraws pin the battle's random stream so a resumed
	// battle continues exactly where the persisted one stopped.
	RandSeed  int64  `json:"rand_seed"`
	RandDraws uint64 `json:"rand_draws"`

	// IdleTimeouts counts consecutive deadline expiries in which no side
	// submitted anything. It resets whenever a real action arrives.
	IdleTimeouts int `json:"idle_timeouts"`

	// Frozen is set when snapshot writes keep failing; a frozen battle
	// rejects actions until persistence recovers.
	Frozen bool `json:"frozen,omitempty"`

	Winner  string `json:"winner"`
	Message string `json:"message"`

	// ActionDeadline is refreshed at every turn open and after restarts;
	// it is advisory wall-clock state, not part of battle mechanics.
	ActionDeadline time.Time `json:"action_deadline"`
}

// Side returns the side with the given ID, or nil.
func (b *Battle) Side(id string) *Side {
	for i := range b.Sides {
		if b.Sides[i].ID == id {
			return &b.Sides[i]
		}
	}
	return nil
}

// SideIndex returns the position of the side with the given ID, or -1.
func (b *Battle) SideIndex(id string) int {
	for i := range b.Sides {
		if b.Sides[i].ID == id {
			return i
		}
	}
	return -1
}

// OpenSeat returns the first joinable side, or nil when the battle is full.
func (b *Battle) OpenSeat() *Side {
	for i := range b.Sides {
		if b.Sides[i].Open() {
			return &b.Sides[i]
		}
	}
	return nil
}

// RemainingSides counts the sides that can still fight.
func (b *Battle) RemainingSides() int {
	n := 0
	for i := range b.Sides {
		if !b.Sides[i].Defeated {
			n++
		}
	}
	return n
}

// AllReady reports whether every side that can still act has a stored action
// for the current turn.
func (b *Battle) AllReady() bool {
	for i := range b.Sides {
		s := &b.Sides[i]
		if s.Defeated {
			continue
		}
		if s.Pending == nil || s.Pending.Turn != b.Turn {
			return false
		}
	}
	return true
}

// Record appends an event to the battle journal, stamping it with the
// current turn and the next sequence number.
func (b *Battle) Record(e Event) Event {
	e.Turn = b.Turn
	e.Seq = len(b.Events)
	b.Events = append(b.Events, e)
	return e
}

// Clone returns a deep copy of the battle. Handed-out state must never alias
// the session's own copy, and turn resolution runs against a clone so a
// failed snapshot write leaves the original untouched.
func (b *Battle) Clone() *Battle {
	out := *b
	out.Sides = make([]Side, len(b.Sides))
	for i := range b.Sides {
		out.Sides[i] = cloneSide(&b.Sides[i])
	}
	out.Events = make([]Event, len(b.Events))
	copy(out.Events, b.Events)
	return &out
}

func cloneSide(s *Side) Side {
	out := *s
	out.Roster = make([]Combatant, len(s.Roster))
	for i := range s.Roster {
		out.Roster[i] = cloneCombatant(&s.Roster[i])
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}

func cloneCombatant(c *Combatant) Combatant {
	out := *c
	out.Statuses = make([]StatusEffect, len(c.Statuses))
	copy(out.Statuses, c.Statuses)
	out.Moves = make([]MoveSlot, len(c.Moves))
	copy(out.Moves, c.Moves)
	return out
}

// Validate performs the structural checks applied to decoded snapshots
// before a battle is resumed. It guards against truncated or hand-edited
// blobs, not against rule violations the engine itself could produce.
func (b *Battle) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("battle has no id")
	}
	if !b.Status.Valid() {
		return fmt.Errorf("battle %s: unknown status %q", b.ID, b.Status)
	}
	// Snapshots are only taken between turns, never mid-resolution.
	if b.Status == StatusResolving {
		return fmt.Errorf("battle %s: snapshot taken mid-resolution", b.ID)
	}
	if b.Turn < 0 {
		return fmt.Errorf("battle %s: negative turn %d", b.ID, b.Turn)
	}
	// Recovery tombstones are sideless terminal markers.
	if len(b.Sides) == 0 {
		if b.Status == StatusAborted {
			return nil
		}
		return fmt.Errorf("battle %s: no sides", b.ID)
	}
	if !b.Kind.Valid() {
		return fmt.Errorf("battle %s: unknown kind %q", b.ID, b.Kind)
	}
	if len(b.Sides) < MinSides || len(b.Sides) > MaxSides {
		return fmt.Errorf("battle %s: %d sides", b.ID, len(b.Sides))
	}
	seen := make(map[string]bool, len(b.Sides))
	for i := range b.Sides {
		s := &b.Sides[i]
		if s.ID == "" {
			return fmt.Errorf("battle %s: side %d has no id", b.ID, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("battle %s: duplicate side id %s", b.ID, s.ID)
		}
		seen[s.ID] = true
		if s.Open() {
			if b.Status != StatusForming {
				return fmt.Errorf("battle %s: open seat %s outside forming", b.ID, s.ID)
			}
			continue
		}
		if len(s.Roster) == 0 || len(s.Roster) > MaxRosterSize {
			return fmt.Errorf("battle %s: side %s roster size %d", b.ID, s.ID, len(s.Roster))
		}
		if s.Active < 0 || s.Active >= len(s.Roster) {
			return fmt.Errorf("battle %s: side %s active index %d out of range", b.ID, s.ID, s.Active)
		}
		if s.Pending != nil && s.Pending.Turn > b.Turn {
			return fmt.Errorf("battle %s: side %s pending action from future turn %d", b.ID, s.ID, s.Pending.Turn)
		}
		for j := range s.Roster {
			if err := validateCombatant(&s.Roster[j]); err != nil {
				return fmt.Errorf("battle %s: side %s roster %d: %w", b.ID, s.ID, j, err)
			}
		}
	}
	if b.Winner != "" && b.Side(b.Winner) == nil {
		return fmt.Errorf("battle %s: winner %q is not a side", b.ID, b.Winner)
	}
	return nil
}

func validateCombatant(c *Combatant) error {
	if c.Species == "" {
		return fmt.Errorf("combatant has no species")
	}
	if c.MaxHP <= 0 {
		return fmt.Errorf("%s: max hp %d", c.Species, c.MaxHP)
	}
	if c.HP < 0 || c.HP > c.MaxHP {
		return fmt.Errorf("%s: hp %d outside [0, %d]", c.Species, c.HP, c.MaxHP)
	}
	if (c.HP == 0) != c.Fainted {
		return fmt.Errorf("%s: hp %d disagrees with fainted=%v", c.Species, c.HP, c.Fainted)
	}
	if len(c.Moves) == 0 || len(c.Moves) > MaxMoves {
		return fmt.Errorf("%s: %d move slots", c.Species, len(c.Moves))
	}
	for _, st := range []int{c.Stages.Attack, c.Stages.Defense, c.Stages.Speed} {
		if st < StageMin || st > StageMax {
			return fmt.Errorf("%s: stage %d outside [%d, %d]", c.Species, st, StageMin, StageMax)
		}
	}
	for i := range c.Statuses {
		if c.Statuses[i].TurnsLeft < 0 {
			return fmt.Errorf("%s: status %s with negative duration", c.Species, c.Statuses[i].Kind)
		}
		if !c.Statuses[i].Kind.Valid() {
			return fmt.Errorf("%s: unknown status kind %q", c.Species, c.Statuses[i].Kind)
		}
	}
	return nil
}
