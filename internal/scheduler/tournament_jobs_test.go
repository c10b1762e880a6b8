package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/majin-sajjad/danny-bot/internal/config"
	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/points"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/internal/service"
	"github.com/majin-sajjad/danny-bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "text", "stderr"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig() config.TournamentConfig {
	return config.TournamentConfig{
		DailySnapshotCron:  "0 0 8 * * *",
		WeeklyRotationCron: "0 0 8 * * 1",
		RefreshCron:        "0 0 */3 * * *",
		RefreshTimezone:    "UTC",
		RefreshStartHour:   0,
		RefreshEndHour:     23,
		GuildTimeout:       5,
	}
}

func newServices(t *testing.T) (*service.LedgerService, *service.LeaderboardService, *service.TournamentService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jobs.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Deal{},
		&models.TournamentWeek{},
		&models.LeaderboardSnapshot{},
		&models.Dispute{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	dealRepo := repository.NewDealRepository(db)
	weekRepo := repository.NewWeekRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	ledger := service.NewLedgerService(dealRepo, points.NewCalculator(nil))
	leaderboard := service.NewLeaderboardService(dealRepo, weekRepo, snapshotRepo)
	tournament := service.NewTournamentService(weekRepo, dealRepo, snapshotRepo, leaderboard)
	return ledger, leaderboard, tournament
}

type captureRefresher struct {
	mu    sync.Mutex
	calls map[int64][]service.LeaderboardEntry
}

func (r *captureRefresher) Refresh(_ context.Context, guildID int64, entries []service.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[int64][]service.LeaderboardEntry)
	}
	r.calls[guildID] = entries
	return nil
}

func TestNewTournamentSchedulerRejectsBadTimezone(t *testing.T) {
	_, leaderboard, tournament := newServices(t)
	cfg := testConfig()
	cfg.RefreshTimezone = "Not/AZone"

	if _, err := NewTournamentScheduler(tournament, leaderboard, nil, cfg); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	_, leaderboard, tournament := newServices(t)
	cfg := testConfig()
	cfg.DailySnapshotCron = "not a cron spec"

	s, err := NewTournamentScheduler(tournament, leaderboard, nil, cfg)
	if err != nil {
		t.Fatalf("NewTournamentScheduler failed: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Fatal("expected error for malformed cron spec")
	}
}

func TestStartStop(t *testing.T) {
	_, leaderboard, tournament := newServices(t)

	s, err := NewTournamentScheduler(tournament, leaderboard, nil, testConfig())
	if err != nil {
		t.Fatalf("NewTournamentScheduler failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}

func TestRunWeeklyRotationVisitsEveryGuild(t *testing.T) {
	ledger, _, tournament := newServices(t)
	ctx := context.Background()

	for _, guildID := range []int64{100, 200} {
		_, err := ledger.RecordDeal(ctx, service.NewDeal{
			GuildID:    guildID,
			UserID:     1,
			Username:   "alice",
			Niche:      "solar",
			DealType:   "standard",
			WeekNumber: 1,
		})
		if err != nil {
			t.Fatalf("RecordDeal failed: %v", err)
		}
	}

	s, err := NewTournamentScheduler(tournament, nil, nil, testConfig())
	if err != nil {
		t.Fatalf("NewTournamentScheduler failed: %v", err)
	}
	s.RunWeeklyRotation()

	for _, guildID := range []int64{100, 200} {
		week, err := tournament.CurrentWeek(ctx, guildID)
		if err != nil {
			t.Fatalf("CurrentWeek(%d) failed: %v", guildID, err)
		}
		if week != 2 {
			t.Fatalf("guild %d week = %d, want 2", guildID, week)
		}
	}
}

func TestRunDailySnapshot(t *testing.T) {
	ledger, leaderboard, tournament := newServices(t)
	ctx := context.Background()

	_, err := ledger.RecordDeal(ctx, service.NewDeal{
		GuildID:    100,
		UserID:     1,
		Username:   "alice",
		Niche:      "solar",
		DealType:   "self",
		WeekNumber: 1,
	})
	if err != nil {
		t.Fatalf("RecordDeal failed: %v", err)
	}

	s, err := NewTournamentScheduler(tournament, leaderboard, nil, testConfig())
	if err != nil {
		t.Fatalf("NewTournamentScheduler failed: %v", err)
	}
	s.RunDailySnapshot()

	history, err := leaderboard.History(ctx, 100, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].TotalPoints != 2 {
		t.Fatalf("unexpected snapshot: %+v", history)
	}

	// Snapshots never rotate the week.
	week, err := tournament.CurrentWeek(ctx, 100)
	if err != nil {
		t.Fatalf("CurrentWeek failed: %v", err)
	}
	if week != 1 {
		t.Fatalf("week after snapshot = %d, want 1", week)
	}
}

func TestRefreshPublishesStandings(t *testing.T) {
	ledger, leaderboard, tournament := newServices(t)
	ctx := context.Background()

	_, err := ledger.RecordDeal(ctx, service.NewDeal{
		GuildID:    100,
		UserID:     1,
		Username:   "alice",
		Niche:      "solar",
		DealType:   "standard",
		WeekNumber: 1,
	})
	if err != nil {
		t.Fatalf("RecordDeal failed: %v", err)
	}

	refresher := &captureRefresher{}
	s, err := NewTournamentScheduler(tournament, leaderboard, refresher, testConfig())
	if err != nil {
		t.Fatalf("NewTournamentScheduler failed: %v", err)
	}
	s.runRefresh()

	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	entries, ok := refresher.calls[100]
	if !ok {
		t.Fatal("refresher was never called for guild 100")
	}
	if len(entries) != 1 || entries[0].Username != "alice" {
		t.Fatalf("unexpected published standings: %+v", entries)
	}
}
