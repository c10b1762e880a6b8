package models

import (
	"time"
)

// LeaderboardSnapshot is one participant's frozen standing at snapshot time.
// Rows are written by the daily job and on week rotation, and never updated.
type LeaderboardSnapshot struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement;column:snapshot_id" json:"snapshot_id"`
	GuildID            int64     `gorm:"not null;index:idx_guild_week_snap" json:"guild_id"`
	WeekNumber         int       `gorm:"not null;index:idx_guild_week_snap" json:"week_number"`
	UserID             int64     `gorm:"not null" json:"user_id"`
	Username           string    `gorm:"size:100;not null" json:"username"`
	TotalPoints        int       `gorm:"not null" json:"total_points"`
	StandardDeals      int       `gorm:"not null" json:"standard_deals"`
	SelfGeneratedDeals int       `gorm:"not null" json:"self_generated_deals"`
	TotalDeals         int       `gorm:"not null" json:"total_deals"`
	RankPosition       int       `gorm:"not null" json:"rank_position"`
	SnapshotDate       time.Time `gorm:"autoCreateTime" json:"snapshot_date"`
}

func (LeaderboardSnapshot) TableName() string {
	return "leaderboard_snapshots"
}
