package api

import (
	"github.com/Killerdash117/veramon-reunited-sub000/internal/arena"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// BattleHandler groups all battle-related HTTP handlers.
type BattleHandler struct {
	reg *arena.Registry
	tbl *game.Tables
}

// NewBattleHandler creates a new BattleHandler over the live battle
// registry and the loaded data tables.
func NewBattleHandler(reg *arena.Registry, tbl *game.Tables) *BattleHandler {
	return &BattleHandler{reg: reg, tbl: tbl}
}
