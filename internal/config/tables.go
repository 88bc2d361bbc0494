package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/keys"
)

type rawTables struct {
	SpeciesList []game.Species `json:"species_list"`
	MoveList    []game.MoveDef `json:"move_list"`
	TypeChart   game.TypeChart `json:"type_chart"`
	Balance     *game.Balance  `json:"balance"`
}

// LoadTables reads the battle data file at path and returns validated
// tables. All names are canonicalized on the way in, so lookups never
// depend on the casing used in the file.
func LoadTables(path string) (*game.Tables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rt rawTables
	if err := json.Unmarshal(b, &rt); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rt.SpeciesList) == 0 {
		return nil, fmt.Errorf("config file %s: species_list is empty (provide 'species_list' array)", path)
	}
	if len(rt.MoveList) == 0 {
		return nil, fmt.Errorf("config file %s: move_list is empty (provide 'move_list' array)", path)
	}
	if rt.Balance == nil {
		return nil, fmt.Errorf("config file %s: missing 'balance' section", path)
	}

	moves := make(map[string]game.MoveDef, len(rt.MoveList))
	for _, m := range rt.MoveList {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("config file %s: move entry missing 'name'", path)
		}
		key := keys.NameKey(m.Name)
		if key == game.StruggleName {
			return nil, fmt.Errorf("config file %s: move name '%s' is reserved", path, m.Name)
		}
		if _, exists := moves[key]; exists {
			return nil, fmt.Errorf("config file %s: duplicate move name '%s'", path, m.Name)
		}
		if err := checkMove(&m); err != nil {
			return nil, fmt.Errorf("config file %s: move '%s': %w", path, m.Name, err)
		}
		m.Name = key
		m.Type = keys.NameKey(m.Type)
		moves[key] = m
	}

	species := make(map[string]game.Species, len(rt.SpeciesList))
	for _, sp := range rt.SpeciesList {
		if strings.TrimSpace(sp.Name) == "" {
			return nil, fmt.Errorf("config file %s: species entry missing 'name'", path)
		}
		key := keys.NameKey(sp.Name)
		if _, exists := species[key]; exists {
			return nil, fmt.Errorf("config file %s: duplicate species name '%s'", path, sp.Name)
		}
		if err := checkSpecies(&sp); err != nil {
			return nil, fmt.Errorf("config file %s: species '%s': %w", path, sp.Name, err)
		}
		sp.Name = key
		sp.Types = keys.NameKeys(sp.Types)
		learnset := keys.NameKeys(sp.Learnset)
		for _, mv := range learnset {
			if _, ok := moves[mv]; !ok {
				return nil, fmt.Errorf("config file %s: species '%s' learnset references unknown move '%s'", path, sp.Name, mv)
			}
		}
		sp.Learnset = learnset
		species[key] = sp
	}

	chart := make(game.TypeChart, len(rt.TypeChart))
	for atk, row := range rt.TypeChart {
		canonical := make(map[string]float64, len(row))
		for def, mult := range row {
			if mult != 0 && mult != 0.5 && mult != 1 && mult != 2 {
				return nil, fmt.Errorf("config file %s: type_chart %s->%s has multiplier %v (allowed: 0, 0.5, 1, 2)", path, atk, def, mult)
			}
			canonical[keys.NameKey(def)] = mult
		}
		chart[keys.NameKey(atk)] = canonical
	}

	if err := checkBalance(rt.Balance); err != nil {
		return nil, fmt.Errorf("config file %s: balance: %w", path, err)
	}

	return &game.Tables{
		Species: species,
		Moves:   moves,
		Chart:   chart,
		Balance: *rt.Balance,
	}, nil
}

func checkMove(m *game.MoveDef) error {
	if m.Power < 0 {
		return fmt.Errorf("power %d is negative", m.Power)
	}
	if m.Accuracy < 1 || m.Accuracy > 100 {
		return fmt.Errorf("accuracy %d outside 1..100", m.Accuracy)
	}
	if m.Uses == 0 {
		return fmt.Errorf("uses must be positive, or negative for unlimited")
	}
	if m.RecoilDivisor < 0 {
		return fmt.Errorf("recoil_divisor %d is negative", m.RecoilDivisor)
	}
	switch m.Target {
	case game.TargetOpponent, game.TargetAllOpponents, game.TargetSelf:
	default:
		return fmt.Errorf("unknown target '%s'", m.Target)
	}
	return checkEffect(m.Effect)
}

func checkEffect(e game.MoveEffect) error {
	if e.Status != "" {
		switch e.Status {
		case game.Burn, game.Poison, game.Paralysis, game.Sleep, game.Confusion, game.Exhausted:
		default:
			return fmt.Errorf("unknown effect status '%s'", e.Status)
		}
		if e.StatusChance < 0 || e.StatusChance > 1 {
			return fmt.Errorf("status_chance %v outside 0..1", e.StatusChance)
		}
		if e.StatusTurns < 0 {
			return fmt.Errorf("status_turns %d is negative", e.StatusTurns)
		}
	}
	if e.Stat != "" {
		switch e.Stat {
		case game.StatAttack, game.StatDefense, game.StatSpeed:
		default:
			return fmt.Errorf("unknown effect stat '%s'", e.Stat)
		}
		if e.Stages == 0 {
			return fmt.Errorf("effect stat '%s' has zero stages", e.Stat)
		}
		if e.StatChance < 0 || e.StatChance > 1 {
			return fmt.Errorf("stat_chance %v outside 0..1", e.StatChance)
		}
		if e.StatTurns < 0 {
			return fmt.Errorf("stat_turns %d is negative", e.StatTurns)
		}
	}
	return nil
}

func checkSpecies(sp *game.Species) error {
	if sp.BaseHP <= 0 {
		return fmt.Errorf("base_hp %d must be positive", sp.BaseHP)
	}
	if sp.BaseStats.Attack <= 0 || sp.BaseStats.Defense <= 0 || sp.BaseStats.Speed <= 0 {
		return fmt.Errorf("base stats must all be positive")
	}
	if len(sp.Types) < 1 || len(sp.Types) > 2 {
		return fmt.Errorf("species must have one or two types, got %d", len(sp.Types))
	}
	if len(sp.Learnset) == 0 {
		return fmt.Errorf("learnset is empty")
	}
	return nil
}

func checkBalance(bal *game.Balance) error {
	if bal.VarianceMin < 1 || bal.VarianceMin > bal.VarianceMax || bal.VarianceMax > 100 {
		return fmt.Errorf("variance bounds %d..%d invalid (need 1 <= min <= max <= 100)", bal.VarianceMin, bal.VarianceMax)
	}
	if bal.CritChance < 0 || bal.CritChance > 1 {
		return fmt.Errorf("crit_chance %v outside 0..1", bal.CritChance)
	}
	if bal.CritMultiplier < 1 {
		return fmt.Errorf("crit_multiplier %v below 1", bal.CritMultiplier)
	}
	for name, chance := range map[string]float64{
		"paralysis_lock_chance":     bal.ParalysisLockChance,
		"confusion_self_hit_chance": bal.ConfusionSelfHitChance,
	} {
		if chance < 0 || chance > 1 {
			return fmt.Errorf("%s %v outside 0..1", name, chance)
		}
	}
	if bal.ParalysisSpeedMult < 0 || bal.ParalysisSpeedMult > 1 {
		return fmt.Errorf("paralysis_speed_mult %v outside 0..1", bal.ParalysisSpeedMult)
	}
	if bal.BurnAttackMult < 0 || bal.BurnAttackMult > 1 {
		return fmt.Errorf("burn_attack_mult %v outside 0..1", bal.BurnAttackMult)
	}
	if bal.BurnTickDivisor <= 0 {
		return fmt.Errorf("burn_tick_divisor %d must be positive", bal.BurnTickDivisor)
	}
	if bal.PoisonTickDivisor <= 0 {
		return fmt.Errorf("poison_tick_divisor %d must be positive", bal.PoisonTickDivisor)
	}
	if bal.ConfusionSelfHitPower <= 0 {
		return fmt.Errorf("confusion_self_hit_power %d must be positive", bal.ConfusionSelfHitPower)
	}
	if bal.SleepTurnsMin < 1 || bal.SleepTurnsMin > bal.SleepTurnsMax {
		return fmt.Errorf("sleep turn range %d..%d invalid", bal.SleepTurnsMin, bal.SleepTurnsMax)
	}
	if bal.ConfusionTurnsMin < 1 || bal.ConfusionTurnsMin > bal.ConfusionTurnsMax {
		return fmt.Errorf("confusion turn range %d..%d invalid", bal.ConfusionTurnsMin, bal.ConfusionTurnsMax)
	}
	return nil
}
