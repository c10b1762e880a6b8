package service

import (
	"context"

	"github.com/majin-sajjad/danny-bot/internal/metrics"
	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/pkg/errors"
	"github.com/majin-sajjad/danny-bot/pkg/logger"
)

// DisputeService is the admin-facing state-transition layer over ledger
// entries: Clean -> Disputed -> {Approved, Rejected}, plus the direct
// points-override path for clerical corrections.
type DisputeService struct {
	disputeRepo *repository.DisputeRepository
	ledger      *LedgerService
}

func NewDisputeService(disputeRepo *repository.DisputeRepository, ledger *LedgerService) *DisputeService {
	return &DisputeService{
		disputeRepo: disputeRepo,
		ledger:      ledger,
	}
}

// RaiseDispute opens a challenge against a deal and flags the deal as
// disputed so it stops counting toward rankings until resolved. A deal with
// a pending dispute cannot be disputed again.
func (s *DisputeService) RaiseDispute(ctx context.Context, guildID, dealID, userID int64, reason string) (*models.Dispute, error) {
	if reason == "" {
		return nil, errors.New(errors.ErrValidation, "dispute reason is required", nil)
	}

	deal, err := s.ledger.GetDeal(ctx, dealID, guildID)
	if err != nil {
		return nil, err
	}

	pending, err := s.disputeRepo.HasPending(ctx, deal.ID)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to check pending disputes", err)
	}
	if pending {
		return nil, errors.New(errors.ErrPermissionDenied, "deal already has a pending dispute", nil)
	}

	dispute := &models.Dispute{
		GuildID: guildID,
		DealID:  deal.ID,
		UserID:  userID,
		Reason:  reason,
		Status:  models.DisputeStatusPending,
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to create dispute", err)
	}

	if err := s.ledger.SetVerification(ctx, deal.ID, guildID, deal.Verified, true, "dispute raised: "+reason); err != nil {
		return nil, err
	}

	metrics.DisputesRaised.Inc()
	logger.WithFields(map[string]interface{}{
		"dispute_id": dispute.ID,
		"deal_id":    deal.ID,
		"guild_id":   guildID,
		"user_id":    userID,
	}).Info("Dispute raised")

	return dispute, nil
}

// Resolve closes a pending dispute. Approval restores the deal; rejection
// permanently removes it from scoring by zeroing its points.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, guildID int64, decision models.DisputeDecision, adminReason string) error {
	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return errors.New(errors.ErrStorage, "failed to load dispute", err)
	}
	if dispute == nil {
		return errors.New(errors.ErrNotFound, "dispute not found", nil)
	}
	if dispute.GuildID != guildID {
		return errors.New(errors.ErrPermissionDenied, "dispute belongs to a different guild", nil)
	}
	if dispute.Status != models.DisputeStatusPending {
		return errors.New(errors.ErrValidation, "dispute already resolved", nil)
	}

	switch decision {
	case models.DisputeDecisionApprove:
		if err := s.ledger.SetVerification(ctx, dispute.DealID, guildID, true, false, "dispute approved: "+adminReason); err != nil {
			return err
		}
	case models.DisputeDecisionReject:
		if err := s.ledger.SetVerification(ctx, dispute.DealID, guildID, false, true, "dispute rejected: "+adminReason); err != nil {
			return err
		}
		if err := s.ledger.OverridePoints(ctx, dispute.DealID, guildID, 0, "dispute rejected: "+adminReason); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrValidation, "decision must be approve or reject", nil)
	}

	if err := s.disputeRepo.MarkResolved(ctx, dispute.ID, decision, adminReason); err != nil {
		return errors.New(errors.ErrStorage, "failed to mark dispute resolved", err)
	}

	metrics.DisputesResolved.Inc()
	logger.WithFields(map[string]interface{}{
		"dispute_id": dispute.ID,
		"deal_id":    dispute.DealID,
		"guild_id":   guildID,
		"decision":   string(decision),
	}).Info("Dispute resolved")

	return nil
}

// AdjustPoints is the direct override path for corrections unrelated to a
// participant's challenge.
func (s *DisputeService) AdjustPoints(ctx context.Context, guildID, dealID int64, newPoints int, adminReason string) error {
	return s.ledger.OverridePoints(ctx, dealID, guildID, newPoints, "admin adjustment: "+adminReason)
}

// Pending lists a guild's open disputes for the admin surface.
func (s *DisputeService) Pending(ctx context.Context, guildID int64) ([]models.Dispute, error) {
	disputes, err := s.disputeRepo.ListPending(ctx, guildID)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to list pending disputes", err)
	}
	return disputes, nil
}
