package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the battle database and brings the schema up to
// date. Snapshots are the only persisted shape; species, moves and balance
// values live in the configuration file and are never written to the DB.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&BattleRecord{}); err != nil {
		return nil, err
	}
	// One row per (battle, turn); SaveSnapshot's upsert conflicts on this
	// index.
	if execErr := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_battle_turn ON battle_snapshots(battle_id, turn);").Error; execErr != nil {
		return nil, execErr
	}
	return db, nil
}
