package game

// StatusKind identifies a status effect. The engine dispatches on this tag;
// adding a kind means adding a rule entry here and a branch in the engine's
// status handling, nothing else.
type StatusKind string

const (
	Burn      StatusKind = "burn"
	Poison    StatusKind = "poison"
	Paralysis StatusKind = "paralysis"
	Sleep     StatusKind = "sleep"
	Confusion StatusKind = "confusion"
	StatShift StatusKind = "stat_shift"
	Exhausted StatusKind = "exhausted"
)

// Valid reports whether k is a known status kind.
func (k StatusKind) Valid() bool {
	_, ok := statusRules[k]
	return ok
}

// IndefiniteTurns is the TurnsLeft sentinel for effects that never expire on
// their own. Timed effects always carry TurnsLeft >= 1.
const IndefiniteTurns = 0

// StatusEffect is one active condition on a combatant. Stat and Stages are
// only meaningful for StatShift entries; Stages records the delta that was
// actually applied so expiry can revert it exactly even when the original
// request was clamped at a stage bound.
type StatusEffect struct {
	Kind       StatusKind `json:"kind"`
	TurnsLeft  int        `json:"turns_left"`
	SourceMove string     `json:"source_move,omitempty"`
	Stat       string     `json:"stat,omitempty"`
	Stages     int        `json:"stages,omitempty"`
}

// Indefinite reports whether the effect only ends via an external cure.
func (e *StatusEffect) Indefinite() bool { return e.TurnsLeft == IndefiniteTurns }

// StackRule decides what happens when a status of an already-present kind
// is applied again.
type StackRule string

const (
	// StackReplace drops the existing instance and installs the new one.
	StackReplace StackRule = "replace"
	// StackRefresh keeps the existing instance but resets its duration.
	StackRefresh StackRule = "refresh"
	// StackIndependent keeps separate instances up to MaxStacks; further
	// applications are ignored.
	StackIndependent StackRule = "independent"
)

// StatusRule is the per-kind behavior table consulted by the engine.
type StatusRule struct {
	Stack StackRule
	// MaxStacks bounds StackIndependent kinds; 1 otherwise.
	MaxStacks int
}

var statusRules = map[StatusKind]StatusRule{
	Burn:      {Stack: StackReplace, MaxStacks: 1},
	Poison:    {Stack: StackIndependent, MaxStacks: 3},
	Paralysis: {Stack: StackReplace, MaxStacks: 1},
	Sleep:     {Stack: StackRefresh, MaxStacks: 1},
	Confusion: {Stack: StackRefresh, MaxStacks: 1},
	StatShift: {Stack: StackIndependent, MaxStacks: 2},
	Exhausted: {Stack: StackRefresh, MaxStacks: 1},
}

// RuleFor returns the stacking rule for the given kind. Unknown kinds fall
// back to a single replaceable instance; they are rejected earlier by
// configuration validation, so this is a safety net only.
func RuleFor(kind StatusKind) StatusRule {
	if r, ok := statusRules[kind]; ok {
		return r
	}
	return StatusRule{Stack: StackReplace, MaxStacks: 1}
}
