package storage

import (
	"errors"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// ErrNotFound is returned when no snapshot exists for the requested battle
// or turn.
var ErrNotFound = errors.New("battle snapshot not found")

type Repository interface {
	// SaveSnapshot persists the battle's current state, overwriting any
	// earlier write for the same turn.
	SaveSnapshot(b *game.Battle) error
	// LatestSnapshot returns the most recent state of a battle.
	LatestSnapshot(battleID string) (*game.Battle, error)
	// SnapshotAt returns the battle state recorded for one turn.
	SnapshotAt(battleID string, turn int) (*game.Battle, error)
	// HistoryTurns lists the turns a battle has snapshots for, ascending.
	HistoryTurns(battleID string) ([]int, error)
	// ListActiveRecords returns the latest snapshot row of every battle
	// that is not in a terminal state. Rows come back raw so recovery can
	// decode them one by one and quarantine the ones that fail.
	ListActiveRecords() ([]BattleRecord, error)
	// MarkRecoveryFailed writes a terminal tombstone for a battle whose
	// stored state could not be restored, recording why.
	MarkRecoveryFailed(battleID string, detail string) error
}
