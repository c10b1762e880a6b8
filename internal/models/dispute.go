package models

import (
	"time"
)

type DisputeStatus string

const (
	DisputeStatusPending  DisputeStatus = "pending"
	DisputeStatusResolved DisputeStatus = "resolved"
)

type DisputeDecision string

const (
	DisputeDecisionApprove DisputeDecision = "approve"
	DisputeDecisionReject  DisputeDecision = "reject"
)

// Dispute is a challenge against a deal. At most one pending dispute may
// exist per deal; the (deal_id, status) index backs that check.
type Dispute struct {
	ID                int64         `gorm:"primaryKey;autoIncrement;column:dispute_id" json:"dispute_id"`
	GuildID           int64         `gorm:"not null;index" json:"guild_id"`
	DealID            int64         `gorm:"not null;index:idx_deal_status" json:"deal_id"`
	UserID            int64         `gorm:"not null" json:"user_id"`
	Reason            string        `gorm:"type:text;not null" json:"reason"`
	Status            DisputeStatus `gorm:"size:20;not null;default:pending;index:idx_deal_status" json:"status"`
	AdminDecision     string        `gorm:"size:20" json:"admin_decision"`
	AdminReason       string        `gorm:"type:text" json:"admin_reason"`
	Timestamp         time.Time     `gorm:"autoCreateTime" json:"timestamp"`
	ResolvedTimestamp *time.Time    `json:"resolved_timestamp,omitempty"`
}

func (Dispute) TableName() string {
	return "disputes"
}
