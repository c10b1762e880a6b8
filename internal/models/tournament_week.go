package models

import (
	"time"
)

// TournamentWeek is one guild's competitive period. Week numbers are
// monotonic per guild and never reused.
type TournamentWeek struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GuildID    int64     `gorm:"uniqueIndex:uk_guild_week;not null" json:"guild_id"`
	WeekNumber int       `gorm:"uniqueIndex:uk_guild_week;not null" json:"week_number"`
	StartDate  time.Time `gorm:"not null" json:"start_date"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TournamentWeek) TableName() string {
	return "tournament_weeks"
}
