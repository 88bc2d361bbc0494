package game

// EventKind labels one entry of the battle journal.
type EventKind string

const (
	EventBattleCreated  EventKind = "battle_created"
	EventSideJoined     EventKind = "side_joined"
	EventBattleStarted  EventKind = "battle_started"
	EventTurnOpened     EventKind = "turn_opened"
	EventActionStored   EventKind = "action_stored"
	EventMoveUsed       EventKind = "move_used"
	EventMoveMissed     EventKind = "move_missed"
	EventDamageDealt    EventKind = "damage_dealt"
	EventRecoilTaken    EventKind = "recoil_taken"
	EventStatusApplied  EventKind = "status_applied"
	EventStatusTicked   EventKind = "status_ticked"
	EventStatusExpired  EventKind = "status_expired"
	EventStatusBlocked  EventKind = "status_blocked"
	EventStageChanged   EventKind = "stage_changed"
	EventActionSkipped  EventKind = "action_skipped"
	EventSelfHit        EventKind = "self_hit"
	EventFainted        EventKind = "fainted"
	EventSwitchedIn     EventKind = "switched_in"
	EventSideDefeated   EventKind = "side_defeated"
	EventTurnResolved   EventKind = "turn_resolved"
	EventBattleEnded    EventKind = "battle_ended"
	EventForfeit        EventKind = "forfeit"
	EventTimeout        EventKind = "timeout"
	EventRecoveryFailed EventKind = "recovery_failed"
)

// Event is one immutable journal entry. Events carry turn and sequence
// numbers but no wall-clock timestamps, so replaying a battle from the same
// seed yields byte-identical journals. Unused fields stay at their zero
// value and are omitted from JSON.
type Event struct {
	Turn      int       `json:"turn"`
	Seq       int       `json:"seq"`
	Kind      EventKind `json:"kind"`
	Side      string    `json:"side,omitempty"`
	Combatant string    `json:"combatant,omitempty"`
	Move      string    `json:"move,omitempty"`
	Status    string    `json:"status,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
