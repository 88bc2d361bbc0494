package game

// Stage multipliers are the classic fraction ladder. Index is stage+6, so
// stage -6 maps to 2/8 and stage +6 to 8/2. Integer math keeps resolution
// deterministic across platforms.
var (
	stageNum = [13]int{2, 2, 2, 2, 2, 2, 2, 3, 4, 5, 6, 7, 8}
	stageDen = [13]int{8, 7, 6, 5, 4, 3, 2, 2, 2, 2, 2, 2, 2}
)

// ScaleByStage applies the multiplier for the given stage to a base stat.
// Stages outside the valid range are clamped first.
func ScaleByStage(stat, stage int) int {
	stage = ClampStage(stage)
	return stat * stageNum[stage+6] / stageDen[stage+6]
}

// ClampStage bounds a stage value to [StageMin, StageMax].
func ClampStage(stage int) int {
	if stage < StageMin {
		return StageMin
	}
	if stage > StageMax {
		return StageMax
	}
	return stage
}

// StatName values accepted by stat-shifting move effects.
const (
	StatAttack  = "attack"
	StatDefense = "defense"
	StatSpeed   = "speed"
)

// StageOf returns a pointer to the named stage inside the set, or nil for
// an unknown stat name.
func (s *StageSet) StageOf(stat string) *int {
	switch stat {
	case StatAttack:
		return &s.Attack
	case StatDefense:
		return &s.Defense
	case StatSpeed:
		return &s.Speed
	}
	return nil
}
