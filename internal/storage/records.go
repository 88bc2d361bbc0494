package storage

import (
	"strings"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"gorm.io/gorm"
)

// BattleRecord is one persisted battle snapshot. The full battle state
// lives in the State blob; the remaining columns are denormalized for
// queries (recovery scans, participant lookups) and never read back into
// battle state. One row exists per (battle, turn): writes within a turn
// overwrite that turn's row, so the table holds the latest state at each
// turn the battle reached.
type BattleRecord struct {
	gorm.Model
	BattleID      string `gorm:"uniqueIndex:idx_battle_turn;size:64"`
	Turn          int    `gorm:"uniqueIndex:idx_battle_turn"`
	SchemaVersion int
	Status        string `gorm:"index"`
	Kind          string
	Winner        string
	Participants  string `gorm:"index"`
	State         []byte `gorm:"type:blob"`
}

// TableName overrides the default GORM table name so the persisted table
// is `battle_snapshots`.
func (BattleRecord) TableName() string { return "battle_snapshots" }

func participantList(b *game.Battle) string {
	parts := make([]string, 0, len(b.Sides))
	for i := range b.Sides {
		if p := b.Sides[i].Participant; p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ",")
}
