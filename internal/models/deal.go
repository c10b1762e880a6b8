package models

import (
	"time"
)

type DealType string

const (
	DealTypeStandard      DealType = "standard"
	DealTypeSelfGenerated DealType = "self_generated"
	DealTypeSet           DealType = "set"
	DealTypeClosed        DealType = "closed"
)

// Deal is one submitted sales event. Core fields are immutable after insert;
// only Points, Verified and Disputed change, and only through the dispute
// and override paths.
type Deal struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:deal_id" json:"deal_id"`
	GuildID        int64     `gorm:"not null;index:idx_guild_week_verified" json:"guild_id"`
	UserID         int64     `gorm:"not null;index" json:"user_id"`
	Username       string    `gorm:"size:100;not null" json:"username"`
	Niche          string    `gorm:"size:50;not null;default:solar" json:"niche"`
	DealType       string    `gorm:"size:50;not null" json:"deal_type"`
	DealValue      float64   `gorm:"not null;default:0" json:"deal_value"`
	Points         int       `gorm:"not null" json:"points"`
	Description    string    `gorm:"type:text" json:"description"`
	WeekNumber     int       `gorm:"not null;index:idx_guild_week_verified" json:"week_number"`
	Verified       bool      `gorm:"not null;default:true;index:idx_guild_week_verified" json:"verified"`
	Disputed       bool      `gorm:"not null;default:false" json:"disputed"`
	AdminSubmitted bool      `gorm:"not null;default:false" json:"admin_submitted"`
	AdminUserID    *int64    `json:"admin_user_id,omitempty"`
	Timestamp      time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (Deal) TableName() string {
	return "deals"
}
