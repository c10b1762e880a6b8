package service

import (
	"context"
	"sync"
	"time"

	"github.com/majin-sajjad/danny-bot/internal/metrics"
	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/pkg/errors"
	"github.com/majin-sajjad/danny-bot/pkg/logger"
)

// TournamentService owns the week clock: one current week per guild, lazily
// created at first use and advanced by the weekly rotation job. It is the
// only writer of tournament_weeks rows.
type TournamentService struct {
	weekRepo     *repository.WeekRepository
	dealRepo     *repository.DealRepository
	snapshotRepo *repository.SnapshotRepository
	leaderboard  *LeaderboardService

	mu      sync.RWMutex
	current map[int64]*models.TournamentWeek // read-through cache, rebuilt from the store on miss
}

func NewTournamentService(
	weekRepo *repository.WeekRepository,
	dealRepo *repository.DealRepository,
	snapshotRepo *repository.SnapshotRepository,
	leaderboard *LeaderboardService,
) *TournamentService {
	return &TournamentService{
		weekRepo:     weekRepo,
		dealRepo:     dealRepo,
		snapshotRepo: snapshotRepo,
		leaderboard:  leaderboard,
		current:      make(map[int64]*models.TournamentWeek),
	}
}

// CurrentWeek returns the guild's active week number, creating week 1 on
// first use.
func (s *TournamentService) CurrentWeek(ctx context.Context, guildID int64) (int, error) {
	week, err := s.currentWeek(ctx, guildID)
	if err != nil {
		return 0, err
	}
	return week.WeekNumber, nil
}

func (s *TournamentService) currentWeek(ctx context.Context, guildID int64) (*models.TournamentWeek, error) {
	s.mu.RLock()
	cached, ok := s.current[guildID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	week, err := s.weekRepo.GetCurrent(ctx, guildID)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to load current week", err)
	}
	if week == nil {
		week = &models.TournamentWeek{
			GuildID:    guildID,
			WeekNumber: 1,
			StartDate:  time.Now(),
		}
		if err := s.weekRepo.Create(ctx, week); err != nil {
			return nil, errors.New(errors.ErrStorage, "failed to initialize week 1", err)
		}
		logger.WithFields(map[string]interface{}{
			"guild_id": guildID,
		}).Info("Tournament week 1 initialized")
	}

	s.mu.Lock()
	s.current[guildID] = week
	s.mu.Unlock()
	return week, nil
}

// Advance archives the closing week's standings and opens week N+1. The
// (guild, week) unique key guards against a racing double rotation creating
// a duplicate week.
func (s *TournamentService) Advance(ctx context.Context, guildID int64) (int, error) {
	closing, err := s.currentWeek(ctx, guildID)
	if err != nil {
		return 0, err
	}

	if err := s.snapshotWeek(ctx, guildID, closing.WeekNumber); err != nil {
		return 0, err
	}

	next := &models.TournamentWeek{
		GuildID:    guildID,
		WeekNumber: closing.WeekNumber + 1,
		StartDate:  time.Now(),
	}
	if err := s.weekRepo.Create(ctx, next); err != nil {
		return 0, errors.New(errors.ErrStorage, "failed to create next week", err)
	}

	s.mu.Lock()
	s.current[guildID] = next
	s.mu.Unlock()

	metrics.WeeksRotated.Inc()
	logger.WithFields(map[string]interface{}{
		"guild_id": guildID,
		"from":     closing.WeekNumber,
		"to":       next.WeekNumber,
	}).Info("Tournament rotated")

	return next.WeekNumber, nil
}

// Snapshot persists the current week's standings without rotating, for
// mid-week trend history.
func (s *TournamentService) Snapshot(ctx context.Context, guildID int64) error {
	week, err := s.currentWeek(ctx, guildID)
	if err != nil {
		return err
	}
	return s.snapshotWeek(ctx, guildID, week.WeekNumber)
}

func (s *TournamentService) snapshotWeek(ctx context.Context, guildID int64, weekNumber int) error {
	entries, err := s.leaderboard.Rank(ctx, guildID, WindowWeek(weekNumber))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.WithFields(map[string]interface{}{
			"guild_id": guildID,
			"week":     weekNumber,
		}).Debug("No standings to snapshot")
		return nil
	}

	snapshots := make([]models.LeaderboardSnapshot, 0, len(entries))
	for _, entry := range entries {
		snapshots = append(snapshots, models.LeaderboardSnapshot{
			GuildID:            guildID,
			WeekNumber:         weekNumber,
			UserID:             entry.UserID,
			Username:           entry.Username,
			TotalPoints:        entry.TotalPoints,
			StandardDeals:      entry.StandardDeals,
			SelfGeneratedDeals: entry.SelfGeneratedDeals,
			TotalDeals:         entry.TotalDeals,
			RankPosition:       entry.Rank,
		})
	}

	if err := s.snapshotRepo.SaveAll(ctx, snapshots); err != nil {
		return errors.New(errors.ErrStorage, "failed to save snapshot", err)
	}

	metrics.SnapshotsTaken.Inc()
	logger.WithFields(map[string]interface{}{
		"guild_id":     guildID,
		"week":         weekNumber,
		"participants": len(snapshots),
	}).Info("Leaderboard snapshot saved")

	return nil
}

// TournamentStats summarizes the state of a guild's current week.
type TournamentStats struct {
	CurrentWeek  int       `json:"current_week"`
	StartDate    time.Time `json:"start_date"`
	Participants int       `json:"participants"`
	TotalDeals   int       `json:"total_deals"`
	TotalPoints  int       `json:"total_points"`
}

func (s *TournamentService) Stats(ctx context.Context, guildID int64) (*TournamentStats, error) {
	week, err := s.currentWeek(ctx, guildID)
	if err != nil {
		return nil, err
	}

	entries, err := s.leaderboard.Rank(ctx, guildID, WindowWeek(week.WeekNumber))
	if err != nil {
		return nil, err
	}

	stats := &TournamentStats{
		CurrentWeek:  week.WeekNumber,
		StartDate:    week.StartDate,
		Participants: len(entries),
	}
	for _, entry := range entries {
		stats.TotalDeals += entry.TotalDeals
		stats.TotalPoints += entry.TotalPoints
	}
	return stats, nil
}

// KnownGuilds lists every guild the periodic jobs must visit: any guild with
// a tournament week or a recorded deal.
func (s *TournamentService) KnownGuilds(ctx context.Context) ([]int64, error) {
	fromWeeks, err := s.weekRepo.DistinctGuilds(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to list guilds from weeks", err)
	}
	fromDeals, err := s.dealRepo.DistinctGuilds(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to list guilds from deals", err)
	}

	seen := make(map[int64]bool, len(fromWeeks)+len(fromDeals))
	guilds := make([]int64, 0, len(fromWeeks)+len(fromDeals))
	for _, lists := range [][]int64{fromWeeks, fromDeals} {
		for _, guildID := range lists {
			if !seen[guildID] {
				seen[guildID] = true
				guilds = append(guilds, guildID)
			}
		}
	}
	return guilds, nil
}

// InitializeGuilds is the startup sweep: every guild that already has deals
// gets its week row ensured, so the clock is warm before the first request.
func (s *TournamentService) InitializeGuilds(ctx context.Context) error {
	guilds, err := s.KnownGuilds(ctx)
	if err != nil {
		return err
	}
	for _, guildID := range guilds {
		if _, err := s.CurrentWeek(ctx, guildID); err != nil {
			logger.WithFields(map[string]interface{}{
				"guild_id": guildID,
			}).Error("Failed to initialize tournament week: ", err)
			continue
		}
	}
	logger.WithFields(map[string]interface{}{
		"guilds": len(guilds),
	}).Info("Tournament weeks initialized")
	return nil
}
