package repository

import (
	"context"

	"github.com/majin-sajjad/danny-bot/internal/models"

	"gorm.io/gorm"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveAll persists one snapshot batch atomically. Snapshot rows are
// append-only; trend queries pick batches apart by snapshot_date.
func (r *SnapshotRepository) SaveAll(ctx context.Context, snapshots []models.LeaderboardSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&snapshots).Error
	})
}

// GetLatestForWeek returns the most recent snapshot batch for a week,
// ordered by rank.
func (r *SnapshotRepository) GetLatestForWeek(ctx context.Context, guildID int64, weekNumber int) ([]models.LeaderboardSnapshot, error) {
	var snapshots []models.LeaderboardSnapshot
	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND week_number = ?", guildID, weekNumber).
		Where("snapshot_date = (?)", r.db.
			Model(&models.LeaderboardSnapshot{}).
			Select("MAX(snapshot_date)").
			Where("guild_id = ? AND week_number = ?", guildID, weekNumber)).
		Order("rank_position ASC").
		Find(&snapshots).Error
	return snapshots, err
}

// CountForWeek reports how many snapshot rows exist for a week.
func (r *SnapshotRepository) CountForWeek(ctx context.Context, guildID int64, weekNumber int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeaderboardSnapshot{}).
		Where("guild_id = ? AND week_number = ?", guildID, weekNumber).
		Count(&count).Error
	return count, err
}
