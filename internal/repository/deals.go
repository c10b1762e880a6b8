package repository

import (
	"context"
	"errors"
	"time"

	"github.com/majin-sajjad/danny-bot/internal/models"

	"gorm.io/gorm"
)

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// DealFilter narrows List results. Zero values mean "no filter" except
// GuildID, which is always required.
type DealFilter struct {
	GuildID      int64
	UserID       int64
	WeekNumber   int
	VerifiedOnly bool
	Limit        int
}

// LeaderboardRow is one participant's aggregate over a set of deals.
type LeaderboardRow struct {
	UserID             int64
	Username           string
	TotalPoints        int
	StandardDeals      int
	SelfGeneratedDeals int
	TotalDeals         int
}

// UserStatRow is a per-(niche, deal type) slice of one participant's output.
type UserStatRow struct {
	Niche       string
	DealType    string
	DealCount   int
	TotalPoints int
}

func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(deal).Error
	})
}

func (r *DealRepository) GetByID(ctx context.Context, dealID int64) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		First(&deal).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &deal, err
}

func (r *DealRepository) List(ctx context.Context, filter DealFilter) ([]models.Deal, error) {
	query := r.db.WithContext(ctx).
		Where("guild_id = ?", filter.GuildID).
		Order("deal_id DESC")

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.WeekNumber != 0 {
		query = query.Where("week_number = ?", filter.WeekNumber)
	}
	if filter.VerifiedOnly {
		query = query.Where("verified = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var deals []models.Deal
	err := query.Find(&deals).Error
	return deals, err
}

// UpdateFlags sets the verification state of an existing deal in a single
// self-contained transaction.
func (r *DealRepository) UpdateFlags(ctx context.Context, dealID int64, verified, disputed bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("deal_id = ?", dealID).
		Updates(map[string]interface{}{
			"verified": verified,
			"disputed": disputed,
		}).Error
}

// UpdatePoints overwrites the frozen point award. The prior value is not
// retained beyond the log trail.
func (r *DealRepository) UpdatePoints(ctx context.Context, dealID int64, newPoints int) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("deal_id = ?", dealID).
		Update("points", newPoints).Error
}

const leaderboardSelect = `
	user_id, username,
	SUM(points) as total_points,
	SUM(CASE WHEN deal_type = 'self_generated' THEN 0 ELSE 1 END) as standard_deals,
	SUM(CASE WHEN deal_type = 'self_generated' THEN 1 ELSE 0 END) as self_generated_deals,
	COUNT(*) as total_deals`

// AggregateWeek groups countable deals for one tournament week. Disputed
// deals do not count regardless of their verified flag.
func (r *DealRepository) AggregateWeek(ctx context.Context, guildID int64, weekNumber int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Select(leaderboardSelect).
		Where("guild_id = ? AND week_number = ? AND verified = ? AND disputed = ?",
			guildID, weekNumber, true, false).
		Group("user_id, username").
		Scan(&rows).Error
	return rows, err
}

// AggregateDay groups countable deals submitted on the given calendar day.
func (r *DealRepository) AggregateDay(ctx context.Context, guildID int64, day time.Time) ([]LeaderboardRow, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var rows []LeaderboardRow
	err := r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Select(leaderboardSelect).
		Where("guild_id = ? AND timestamp >= ? AND timestamp < ? AND verified = ? AND disputed = ?",
			guildID, start, end, true, false).
		Group("user_id, username").
		Scan(&rows).Error
	return rows, err
}

// UserStats returns per-(niche, deal type) aggregates for one participant.
// A zero weekNumber means all time.
func (r *DealRepository) UserStats(ctx context.Context, guildID, userID int64, weekNumber int) ([]UserStatRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Select("niche, deal_type, COUNT(*) as deal_count, SUM(points) as total_points").
		Where("guild_id = ? AND user_id = ? AND verified = ? AND disputed = ?",
			guildID, userID, true, false)

	if weekNumber != 0 {
		query = query.Where("week_number = ?", weekNumber)
	}

	var rows []UserStatRow
	err := query.Group("niche, deal_type").Scan(&rows).Error
	return rows, err
}

// DistinctGuilds lists every guild that has ever recorded a deal.
func (r *DealRepository) DistinctGuilds(ctx context.Context) ([]int64, error) {
	var guildIDs []int64
	err := r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Distinct("guild_id").
		Pluck("guild_id", &guildIDs).Error
	return guildIDs, err
}
