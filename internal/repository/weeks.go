package repository

import (
	"context"
	"errors"

	"github.com/majin-sajjad/danny-bot/internal/models"

	"gorm.io/gorm"
)

type WeekRepository struct {
	db *gorm.DB
}

func NewWeekRepository(db *gorm.DB) *WeekRepository {
	return &WeekRepository{db: db}
}

// GetCurrent returns the highest-numbered week for a guild, or nil if the
// guild has never had a tournament.
func (r *WeekRepository) GetCurrent(ctx context.Context, guildID int64) (*models.TournamentWeek, error) {
	var week models.TournamentWeek
	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("week_number DESC").
		First(&week).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &week, err
}

// Create inserts a tournament week if it does not already exist. The
// (guild_id, week_number) unique key makes a racing double-insert a no-op,
// which keeps Advance safe against two scheduler instances.
func (r *WeekRepository) Create(ctx context.Context, week *models.TournamentWeek) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("guild_id = ? AND week_number = ?", week.GuildID, week.WeekNumber).
			FirstOrCreate(week).Error
	})
}

func (r *WeekRepository) GetByNumber(ctx context.Context, guildID int64, weekNumber int) (*models.TournamentWeek, error) {
	var week models.TournamentWeek
	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND week_number = ?", guildID, weekNumber).
		First(&week).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &week, err
}

// DistinctGuilds lists every guild with at least one tournament week.
func (r *WeekRepository) DistinctGuilds(ctx context.Context) ([]int64, error) {
	var guildIDs []int64
	err := r.db.WithContext(ctx).
		Model(&models.TournamentWeek{}).
		Distinct("guild_id").
		Pluck("guild_id", &guildIDs).Error
	return guildIDs, err
}
