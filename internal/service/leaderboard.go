package service

import (
	"context"
	"sort"
	"time"

	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/pkg/errors"
)

// Window selects the aggregation period for a ranking.
type Window struct {
	Today      bool
	WeekNumber int // 0 means the guild's current week
}

func WindowToday() Window {
	return Window{Today: true}
}

func WindowWeek(weekNumber int) Window {
	return Window{WeekNumber: weekNumber}
}

// LeaderboardEntry is one participant's ranked aggregate. It is derived on
// every call and never persisted directly.
type LeaderboardEntry struct {
	Rank               int    `json:"rank"`
	UserID             int64  `json:"user_id"`
	Username           string `json:"username"`
	TotalPoints        int    `json:"total_points"`
	StandardDeals      int    `json:"standard_deals"`
	SelfGeneratedDeals int    `json:"self_generated_deals"`
	TotalDeals         int    `json:"total_deals"`
}

// LeaderboardService computes rankings from committed ledger rows. It is a
// pure read layer: safe to call concurrently, and it always reflects the
// latest ledger contents without any cache of its own.
type LeaderboardService struct {
	dealRepo     *repository.DealRepository
	weekRepo     *repository.WeekRepository
	snapshotRepo *repository.SnapshotRepository
}

func NewLeaderboardService(
	dealRepo *repository.DealRepository,
	weekRepo *repository.WeekRepository,
	snapshotRepo *repository.SnapshotRepository,
) *LeaderboardService {
	return &LeaderboardService{
		dealRepo:     dealRepo,
		weekRepo:     weekRepo,
		snapshotRepo: snapshotRepo,
	}
}

// Rank orders a guild's participants for the given window. Disputed deals
// never count, whatever their verified flag. Ties break by deal count, then
// by user id, so repeated calls over unchanged data are byte-identical.
func (s *LeaderboardService) Rank(ctx context.Context, guildID int64, window Window) ([]LeaderboardEntry, error) {
	if guildID == 0 {
		return nil, errors.New(errors.ErrValidation, "guild_id is required", nil)
	}

	var rows []repository.LeaderboardRow
	var err error

	if window.Today {
		rows, err = s.dealRepo.AggregateDay(ctx, guildID, time.Now())
	} else {
		weekNumber := window.WeekNumber
		if weekNumber == 0 {
			weekNumber, err = s.resolveCurrentWeek(ctx, guildID)
			if err != nil {
				return nil, err
			}
		}
		rows, err = s.dealRepo.AggregateWeek(ctx, guildID, weekNumber)
	}
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to aggregate leaderboard", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		if rows[i].TotalDeals != rows[j].TotalDeals {
			return rows[i].TotalDeals > rows[j].TotalDeals
		}
		return rows[i].UserID < rows[j].UserID
	})

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:               i + 1,
			UserID:             row.UserID,
			Username:           row.Username,
			TotalPoints:        row.TotalPoints,
			StandardDeals:      row.StandardDeals,
			SelfGeneratedDeals: row.SelfGeneratedDeals,
			TotalDeals:         row.TotalDeals,
		})
	}
	return entries, nil
}

// History reads the frozen snapshot standings for a past week.
func (s *LeaderboardService) History(ctx context.Context, guildID int64, weekNumber int) ([]models.LeaderboardSnapshot, error) {
	if weekNumber < 1 {
		return nil, errors.New(errors.ErrValidation, "week_number must be at least 1", nil)
	}
	snapshots, err := s.snapshotRepo.GetLatestForWeek(ctx, guildID, weekNumber)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to load snapshot history", err)
	}
	return snapshots, nil
}

// resolveCurrentWeek is a read-only lookup; the tournament clock remains the
// only writer of week rows.
func (s *LeaderboardService) resolveCurrentWeek(ctx context.Context, guildID int64) (int, error) {
	week, err := s.weekRepo.GetCurrent(ctx, guildID)
	if err != nil {
		return 0, errors.New(errors.ErrStorage, "failed to resolve current week", err)
	}
	if week == nil {
		return 1, nil
	}
	return week.WeekNumber, nil
}
