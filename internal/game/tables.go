package game

// Species is one entry of the species table loaded from the balance
// configuration. Base stats are scaled by level when a battle roster is
// built; Learnset lists the canonical move names the species may carry.
type Species struct {
	Name      string   `json:"name"`
	Types     []string `json:"types"`
	BaseHP    int      `json:"base_hp"`
	BaseStats Stats    `json:"base_stats"`
	Learnset  []string `json:"learnset"`
}

// MoveEffect is the optional secondary effect of a move. A zero value means
// the move has no secondary effect. Status and stat parts are independent;
// a move may carry either or both.
type MoveEffect struct {
	// Status to inflict, rolled per hit. StatusTarget self turns the
	// status inward (a recharge move exhausting its own user); anything
	// else means the move's target.
	Status       StatusKind `json:"status,omitempty"`
	StatusChance float64    `json:"status_chance,omitempty"`
	StatusTarget TargetKind `json:"status_target,omitempty"`
	// StatusTurns is the duration copied into the applied effect. Zero
	// means indefinite. Sleep and confusion ignore it and roll their
	// duration from the balance ranges instead.
	StatusTurns int `json:"status_turns,omitempty"`

	// Stat stage change, rolled per hit independently of the status part.
	Stat       string     `json:"stat,omitempty"`
	Stages     int        `json:"stages,omitempty"`
	StatChance float64    `json:"stat_chance,omitempty"`
	StatTarget TargetKind `json:"stat_target,omitempty"`
	// StatTurns > 0 installs a timed stat_shift that reverts on expiry;
	// zero shifts the stage directly until the combatant leaves the field.
	StatTurns int `json:"stat_turns,omitempty"`
}

// Empty reports whether the move has no secondary effect at all.
func (e MoveEffect) Empty() bool { return e.Status == "" && e.Stat == "" }

// MoveDef is one entry of the move table. Power 0 marks a non-damaging
// move; Accuracy 100 never rolls; Uses below zero means unlimited.
type MoveDef struct {
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Power         int        `json:"power"`
	Accuracy      int        `json:"accuracy"`
	Priority      int        `json:"priority"`
	Uses          int        `json:"uses"`
	Target        TargetKind `json:"target"`
	RecoilDivisor int        `json:"recoil_divisor,omitempty"`
	Effect        MoveEffect `json:"effect,omitempty"`
}

// Damaging reports whether the move goes through the damage formula.
func (m MoveDef) Damaging() bool { return m.Power > 0 }

// StruggleName is the built-in fallback move used when a side misses its
// action deadline or has no uses left on any move. It is not part of the
// configured move table and cannot be configured away.
const StruggleName = "struggle"

// Struggle returns the fallback move definition: typeless, never misses,
// hits one opponent and recoils a quarter of the damage dealt back onto
// the user.
func Struggle() MoveDef {
	return MoveDef{
		Name:          StruggleName,
		Type:          "",
		Power:         50,
		Accuracy:      100,
		Priority:      0,
		Uses:          -1,
		Target:        TargetOpponent,
		RecoilDivisor: 4,
	}
}

// TypeChart maps attacking type -> defending type -> multiplier. Entries
// are restricted to 0, 0.5, 1 and 2 by configuration validation; missing
// entries default to 1.
type TypeChart map[string]map[string]float64

// Multiplier returns the combined effectiveness of an attacking type
// against a defender's type list. Dual-typed defenders multiply the
// per-type factors. A typeless attack is always neutral.
func (tc TypeChart) Multiplier(attacking string, defending []string) float64 {
	if attacking == "" {
		return 1
	}
	mult := 1.0
	row, ok := tc[attacking]
	if !ok {
		return mult
	}
	for _, d := range defending {
		if f, ok := row[d]; ok {
			mult *= f
		}
	}
	return mult
}

// Balance holds the tuning constants read from the balance configuration.
// Chance fields are probabilities in [0, 1]; variance bounds are percent.
type Balance struct {
	VarianceMin    int     `json:"variance_min"`
	VarianceMax    int     `json:"variance_max"`
	CritChance     float64 `json:"crit_chance"`
	CritMultiplier float64 `json:"crit_multiplier"`

	ParalysisLockChance float64 `json:"paralysis_lock_chance"`
	ParalysisSpeedMult  float64 `json:"paralysis_speed_mult"`

	BurnAttackMult  float64 `json:"burn_attack_mult"`
	BurnTickDivisor int     `json:"burn_tick_divisor"`

	PoisonTickDivisor int `json:"poison_tick_divisor"`

	ConfusionSelfHitChance float64 `json:"confusion_self_hit_chance"`
	ConfusionSelfHitPower  int     `json:"confusion_self_hit_power"`

	SleepTurnsMin     int `json:"sleep_turns_min"`
	SleepTurnsMax     int `json:"sleep_turns_max"`
	ConfusionTurnsMin int `json:"confusion_turns_min"`
	ConfusionTurnsMax int `json:"confusion_turns_max"`
}

// Tables bundles the loaded species, move and type data together with the
// balance constants. It is read-only after configuration load and shared
// by every battle session.
type Tables struct {
	Species map[string]Species
	Moves   map[string]MoveDef
	Chart   TypeChart
	Balance Balance
}

// SpeciesByName looks up a species by canonical name.
func (t *Tables) SpeciesByName(name string) (Species, bool) {
	sp, ok := t.Species[name]
	return sp, ok
}

// MoveByName looks up a move by canonical name. The built-in fallback move
// resolves here too so engine code never special-cases it.
func (t *Tables) MoveByName(name string) (MoveDef, bool) {
	if name == StruggleName {
		return Struggle(), true
	}
	m, ok := t.Moves[name]
	return m, ok
}

// DefaultLevel is used when a roster entry does not specify a level.
const DefaultLevel = 50

// DeriveStats scales a species' base values to the given level using the
// classic formulas. MaxHP grows faster than the other stats so higher-level
// battles last more turns.
func DeriveStats(sp Species, level int) (maxHP int, stats Stats) {
	maxHP = 2*sp.BaseHP*level/100 + level + 10
	stats = Stats{
		Attack:  2*sp.BaseStats.Attack*level/100 + 5,
		Defense: 2*sp.BaseStats.Defense*level/100 + 5,
		Speed:   2*sp.BaseStats.Speed*level/100 + 5,
	}
	return maxHP, stats
}
