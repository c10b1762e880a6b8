package service

import (
	"context"

	"github.com/majin-sajjad/danny-bot/internal/metrics"
	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/points"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/pkg/errors"
	"github.com/majin-sajjad/danny-bot/pkg/logger"
)

// LedgerService owns the deal ledger. RecordDeal is the single insert path;
// SetVerification and OverridePoints are the only mutation paths. Rows are
// never deleted.
type LedgerService struct {
	dealRepo   *repository.DealRepository
	calculator *points.Calculator
}

func NewLedgerService(dealRepo *repository.DealRepository, calculator *points.Calculator) *LedgerService {
	return &LedgerService{
		dealRepo:   dealRepo,
		calculator: calculator,
	}
}

// NewDeal carries one submission. AdminUserID is set when an admin submits
// on a participant's behalf.
type NewDeal struct {
	GuildID     int64
	UserID      int64
	Username    string
	Niche       string
	DealType    string
	DealValue   float64
	Description string
	WeekNumber  int
	AdminUserID *int64
}

// RecordDeal computes the point award exactly once and persists the deal as
// a single transaction. The stored points are frozen; only an explicit admin
// override changes them afterwards.
func (s *LedgerService) RecordDeal(ctx context.Context, submission NewDeal) (*models.Deal, error) {
	if submission.GuildID == 0 || submission.UserID == 0 {
		return nil, errors.New(errors.ErrValidation, "guild_id and user_id are required", nil)
	}
	if submission.Username == "" {
		return nil, errors.New(errors.ErrValidation, "username is required", nil)
	}
	if submission.WeekNumber < 1 {
		return nil, errors.New(errors.ErrValidation, "week_number must be at least 1", nil)
	}

	niche := points.NormalizeNiche(submission.Niche)
	if niche == "" {
		niche = points.DefaultNiche
	}
	dealType := points.NormalizeDealType(submission.DealType)

	award, err := s.calculator.Calculate(niche, dealType, submission.DealValue)
	if err != nil {
		return nil, err
	}

	deal := &models.Deal{
		GuildID:        submission.GuildID,
		UserID:         submission.UserID,
		Username:       submission.Username,
		Niche:          niche,
		DealType:       dealType,
		DealValue:      submission.DealValue,
		Points:         award,
		Description:    submission.Description,
		WeekNumber:     submission.WeekNumber,
		Verified:       true,
		Disputed:       false,
		AdminSubmitted: submission.AdminUserID != nil,
		AdminUserID:    submission.AdminUserID,
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to record deal", err)
	}

	metrics.DealsRecorded.Inc()
	logger.WithFields(map[string]interface{}{
		"deal_id":   deal.ID,
		"guild_id":  deal.GuildID,
		"user_id":   deal.UserID,
		"niche":     deal.Niche,
		"deal_type": deal.DealType,
		"points":    deal.Points,
		"week":      deal.WeekNumber,
	}).Info("Deal recorded")

	return deal, nil
}

// GetDeals lists deals for audit and aggregation views, newest first.
func (s *LedgerService) GetDeals(ctx context.Context, filter repository.DealFilter) ([]models.Deal, error) {
	if filter.GuildID == 0 {
		return nil, errors.New(errors.ErrValidation, "guild_id is required", nil)
	}
	deals, err := s.dealRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to list deals", err)
	}
	return deals, nil
}

// GetDeal loads a deal scoped to a guild. A deal belonging to another guild
// is reported as PermissionDenied, never silently returned.
func (s *LedgerService) GetDeal(ctx context.Context, dealID, guildID int64) (*models.Deal, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to load deal", err)
	}
	if deal == nil {
		return nil, errors.New(errors.ErrNotFound, "deal not found", nil)
	}
	if deal.GuildID != guildID {
		return nil, errors.New(errors.ErrPermissionDenied, "deal belongs to a different guild", nil)
	}
	return deal, nil
}

// SetVerification updates the verified/disputed flags of an existing deal.
func (s *LedgerService) SetVerification(ctx context.Context, dealID, guildID int64, verified, disputed bool, reason string) error {
	deal, err := s.GetDeal(ctx, dealID, guildID)
	if err != nil {
		return err
	}

	if err := s.dealRepo.UpdateFlags(ctx, deal.ID, verified, disputed); err != nil {
		return errors.New(errors.ErrStorage, "failed to update verification flags", err)
	}

	logger.WithFields(map[string]interface{}{
		"deal_id":  deal.ID,
		"guild_id": guildID,
		"verified": verified,
		"disputed": disputed,
		"reason":   reason,
	}).Info("Deal verification updated")

	return nil
}

// OverridePoints overwrites the frozen point award. Only the reason string
// survives as an audit trail; the prior value lives in the log only.
func (s *LedgerService) OverridePoints(ctx context.Context, dealID, guildID int64, newPoints int, reason string) error {
	if newPoints < 0 {
		return errors.New(errors.ErrValidation, "points cannot be negative", nil)
	}

	deal, err := s.GetDeal(ctx, dealID, guildID)
	if err != nil {
		return err
	}

	if err := s.dealRepo.UpdatePoints(ctx, deal.ID, newPoints); err != nil {
		return errors.New(errors.ErrStorage, "failed to override points", err)
	}

	metrics.PointsOverrides.Inc()
	logger.WithFields(map[string]interface{}{
		"deal_id":    deal.ID,
		"guild_id":   guildID,
		"old_points": deal.Points,
		"new_points": newPoints,
		"reason":     reason,
	}).Info("Deal points overridden")

	return nil
}

// UserStats bundles a participant's all-time and current-week aggregates.
type UserStats struct {
	AllTime     []repository.UserStatRow `json:"all_time"`
	CurrentWeek []repository.UserStatRow `json:"current_week"`
	WeekNumber  int                      `json:"week_number"`
}

// GetUserStats returns per-(niche, deal type) slices of one participant's
// countable output.
func (s *LedgerService) GetUserStats(ctx context.Context, guildID, userID int64, currentWeek int) (*UserStats, error) {
	allTime, err := s.dealRepo.UserStats(ctx, guildID, userID, 0)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to load all-time stats", err)
	}
	weekStats, err := s.dealRepo.UserStats(ctx, guildID, userID, currentWeek)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to load week stats", err)
	}
	return &UserStats{
		AllTime:     allTime,
		CurrentWeek: weekStats,
		WeekNumber:  currentWeek,
	}, nil
}
