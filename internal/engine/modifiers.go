package engine

import "github.com/Killerdash117/veramon-reunited-sub000/internal/game"

// --- Effective stat helpers --------------------------------------------

func (tc *turnContext) effectiveAttack(c *game.Combatant) int {
	a := game.ScaleByStage(c.Stats.Attack, c.Stages.Attack)
	if c.HasStatus(game.Burn) {
		a = int(float64(a) * tc.balance().BurnAttackMult)
	}
	if a < 1 {
		a = 1
	}
	return a
}

func (tc *turnContext) effectiveDefense(c *game.Combatant) int {
	d := game.ScaleByStage(c.Stats.Defense, c.Stages.Defense)
	if d < 1 {
		d = 1
	}
	return d
}

func (tc *turnContext) effectiveSpeed(c *game.Combatant) int {
	s := game.ScaleByStage(c.Stats.Speed, c.Stages.Speed)
	if c.HasStatus(game.Paralysis) {
		s = int(float64(s) * tc.balance().ParalysisSpeedMult)
	}
	if s < 0 {
		s = 0
	}
	return s
}
