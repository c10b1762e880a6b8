package repository

import (
	"context"
	"errors"
	"time"

	"github.com/majin-sajjad/danny-bot/internal/models"

	"gorm.io/gorm"
)

type DisputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(dispute).Error
	})
}

func (r *DisputeRepository) GetByID(ctx context.Context, disputeID int64) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.db.WithContext(ctx).
		Where("dispute_id = ?", disputeID).
		First(&dispute).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &dispute, err
}

// HasPending reports whether the deal already has an unresolved dispute.
func (r *DisputeRepository) HasPending(ctx context.Context, dealID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("deal_id = ? AND status = ?", dealID, models.DisputeStatusPending).
		Count(&count).Error
	return count > 0, err
}

// MarkResolved records the admin decision on a pending dispute.
func (r *DisputeRepository) MarkResolved(ctx context.Context, disputeID int64, decision models.DisputeDecision, adminReason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("dispute_id = ?", disputeID).
		Updates(map[string]interface{}{
			"status":             models.DisputeStatusResolved,
			"admin_decision":     string(decision),
			"admin_reason":       adminReason,
			"resolved_timestamp": &now,
		}).Error
}

// ListPending returns a guild's open disputes, oldest first.
func (r *DisputeRepository) ListPending(ctx context.Context, guildID int64) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND status = ?", guildID, models.DisputeStatusPending).
		Order("dispute_id ASC").
		Find(&disputes).Error
	return disputes, err
}
