package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/majin-sajjad/danny-bot/internal/config"
	"github.com/majin-sajjad/danny-bot/internal/metrics"
	"github.com/majin-sajjad/danny-bot/internal/service"
	"github.com/majin-sajjad/danny-bot/pkg/logger"
)

// Refresher republishes a freshly computed ranking to an external display
// surface. Rendering and posting live outside the core.
type Refresher interface {
	Refresh(ctx context.Context, guildID int64, entries []service.LeaderboardEntry) error
}

// TournamentScheduler runs the three periodic jobs: daily snapshots, weekly
// rotation, and the business-hours display refresh. Each tick visits every
// known guild; one guild's failure never aborts the others.
type TournamentScheduler struct {
	cron        *cron.Cron
	tournament  *service.TournamentService
	leaderboard *service.LeaderboardService
	refresher   Refresher
	cfg         config.TournamentConfig
	location    *time.Location
}

func NewTournamentScheduler(
	tournament *service.TournamentService,
	leaderboard *service.LeaderboardService,
	refresher Refresher,
	cfg config.TournamentConfig,
) (*TournamentScheduler, error) {
	location, err := time.LoadLocation(cfg.RefreshTimezone)
	if err != nil {
		return nil, err
	}
	return &TournamentScheduler{
		cron:        cron.New(cron.WithSeconds()),
		tournament:  tournament,
		leaderboard: leaderboard,
		refresher:   refresher,
		cfg:         cfg,
		location:    location,
	}, nil
}

func (s *TournamentScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.DailySnapshotCron, s.runDailySnapshots); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.WeeklyRotationCron, s.runWeeklyRotation); err != nil {
		return err
	}
	if s.refresher != nil {
		if _, err := s.cron.AddFunc(s.cfg.RefreshCron, s.runRefresh); err != nil {
			return err
		}
	}

	s.cron.Start()
	logger.Info("Tournament scheduler started")
	return nil
}

func (s *TournamentScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Tournament scheduler stopped")
}

func (s *TournamentScheduler) runDailySnapshots() {
	s.forEachGuild("daily_snapshot", func(ctx context.Context, guildID int64) error {
		return s.tournament.Snapshot(ctx, guildID)
	})
}

func (s *TournamentScheduler) runWeeklyRotation() {
	s.forEachGuild("weekly_rotation", func(ctx context.Context, guildID int64) error {
		_, err := s.tournament.Advance(ctx, guildID)
		return err
	})
}

// runRefresh republishes standings during the configured local-time window.
// Outside the window it is a no-op; it never mutates the ledger.
func (s *TournamentScheduler) runRefresh() {
	hour := time.Now().In(s.location).Hour()
	if hour < s.cfg.RefreshStartHour || hour > s.cfg.RefreshEndHour {
		logger.WithFields(map[string]interface{}{
			"hour": hour,
		}).Debug("Skipping leaderboard refresh outside business hours")
		return
	}

	s.forEachGuild("refresh", func(ctx context.Context, guildID int64) error {
		entries, err := s.leaderboard.Rank(ctx, guildID, service.WindowWeek(0))
		if err != nil {
			return err
		}
		return s.refresher.Refresh(ctx, guildID, entries)
	})
}

// forEachGuild applies one unit of work per guild under a bounded timeout.
// Per-guild failures are counted, logged and skipped; a failure to even list
// the guilds abandons this tick and waits for the next one.
func (s *TournamentScheduler) forEachGuild(job string, fn func(ctx context.Context, guildID int64) error) {
	listCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GuildTimeoutDuration())
	guilds, err := s.tournament.KnownGuilds(listCtx)
	cancel()
	if err != nil {
		metrics.SchedulerErrors.Inc()
		logger.WithFields(map[string]interface{}{
			"job": job,
		}).Error("Failed to list guilds, skipping tick: ", err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"job":    job,
		"guilds": len(guilds),
	}).Info("Scheduled job started")

	for _, guildID := range guilds {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GuildTimeoutDuration())
		err := fn(ctx, guildID)
		cancel()
		if err != nil {
			metrics.SchedulerErrors.Inc()
			logger.WithFields(map[string]interface{}{
				"job":      job,
				"guild_id": guildID,
			}).Error("Scheduled job failed for guild: ", err)
			continue
		}
	}

	logger.WithFields(map[string]interface{}{
		"job": job,
	}).Info("Scheduled job completed")
}

// RunDailySnapshot triggers the snapshot pass outside its schedule.
func (s *TournamentScheduler) RunDailySnapshot() {
	s.runDailySnapshots()
}

// RunWeeklyRotation triggers the rotation pass outside its schedule.
func (s *TournamentScheduler) RunWeeklyRotation() {
	s.runWeeklyRotation()
}
