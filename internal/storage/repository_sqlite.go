package storage

import (
	"errors"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) SaveSnapshot(b *game.Battle) error {
	data, err := EncodeBattle(b)
	if err != nil {
		return err
	}
	rec := BattleRecord{
		BattleID:      b.ID,
		Turn:          b.Turn,
		SchemaVersion: SchemaVersion,
		Status:        string(b.Status),
		Kind:          string(b.Kind),
		Winner:        b.Winner,
		Participants:  participantList(b),
		State:         data,
	}
	// Upsert keyed by (battle_id, turn): repeated writes within one turn
	// replace that turn's row instead of failing the unique constraint.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "battle_id"}, {Name: "turn"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_version", "status", "winner", "participants", "state", "updated_at"}),
	}).Create(&rec).Error
}

func (r *sqliteRepository) LatestSnapshot(battleID string) (*game.Battle, error) {
	var rec BattleRecord
	err := r.db.Where("battle_id = ?", battleID).Order("turn DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeBattle(rec.State)
}

func (r *sqliteRepository) SnapshotAt(battleID string, turn int) (*game.Battle, error) {
	var rec BattleRecord
	err := r.db.Where("battle_id = ? AND turn = ?", battleID, turn).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeBattle(rec.State)
}

func (r *sqliteRepository) HistoryTurns(battleID string) ([]int, error) {
	var turns []int
	err := r.db.Model(&BattleRecord{}).
		Where("battle_id = ?", battleID).
		Order("turn ASC").
		Pluck("turn", &turns).Error
	return turns, err
}

func (r *sqliteRepository) ListActiveRecords() ([]BattleRecord, error) {
	terminal := []string{
		string(game.StatusCompleted),
		string(game.StatusAborted),
		string(game.StatusExpired),
	}
	latest := r.db.Model(&BattleRecord{}).
		Select("battle_id, MAX(turn) AS turn").
		Group("battle_id")
	var recs []BattleRecord
	err := r.db.Model(&BattleRecord{}).
		Joins("JOIN (?) latest ON battle_snapshots.battle_id = latest.battle_id AND battle_snapshots.turn = latest.turn", latest).
		Where("battle_snapshots.status NOT IN ?", terminal).
		Order("battle_snapshots.battle_id ASC").
		Find(&recs).Error
	return recs, err
}

func (r *sqliteRepository) MarkRecoveryFailed(battleID string, detail string) error {
	// Tombstone on a fresh turn so the unreadable row is left in place
	// for inspection and every later read sees a clean terminal state.
	turn := 0
	var rec BattleRecord
	if err := r.db.Where("battle_id = ?", battleID).Order("turn DESC").First(&rec).Error; err == nil {
		turn = rec.Turn + 1
	}
	b := &game.Battle{
		ID:      battleID,
		Status:  game.StatusAborted,
		Turn:    turn,
		Message: "Battle aborted: stored state could not be recovered.",
	}
	b.Record(game.Event{Kind: game.EventRecoveryFailed, Detail: detail})
	b.Record(game.Event{Kind: game.EventBattleEnded, Detail: "recovery failed"})
	return r.SaveSnapshot(b)
}
