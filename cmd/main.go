package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/majin-sajjad/danny-bot/internal/config"
	"github.com/majin-sajjad/danny-bot/internal/handler"
	"github.com/majin-sajjad/danny-bot/internal/metrics"
	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/points"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/internal/scheduler"
	"github.com/majin-sajjad/danny-bot/internal/service"
	"github.com/majin-sajjad/danny-bot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer closeDatabase(db)

	metrics.Register()

	dealRepo := repository.NewDealRepository(db)
	weekRepo := repository.NewWeekRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	disputeRepo := repository.NewDisputeRepository(db)

	calculator := points.NewCalculator(cfg.Niches)

	ledgerSvc := service.NewLedgerService(dealRepo, calculator)
	leaderboardSvc := service.NewLeaderboardService(dealRepo, weekRepo, snapshotRepo)
	tournamentSvc := service.NewTournamentService(weekRepo, dealRepo, snapshotRepo, leaderboardSvc)
	disputeSvc := service.NewDisputeService(disputeRepo, ledgerSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tournamentSvc.InitializeGuilds(ctx); err != nil {
		logger.Error("Startup tournament sweep failed:", err)
	}

	jobs, err := scheduler.NewTournamentScheduler(tournamentSvc, leaderboardSvc, nil, cfg.Tournament)
	if err != nil {
		logger.Fatal("Failed to build scheduler:", err)
	}
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler:", err)
	}
	defer jobs.Stop()

	router := setupHTTPRouter(ledgerSvc, leaderboardSvc, tournamentSvc, disputeSvc)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting on port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error:", err)
	}

	logger.Info("Server stopped")
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Deal{},
		&models.TournamentWeek{},
		&models.LeaderboardSnapshot{},
		&models.Dispute{},
	); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get database instance:", err)
		return
	}
	sqlDB.Close()
}

func setupHTTPRouter(
	ledgerSvc *service.LedgerService,
	leaderboardSvc *service.LeaderboardService,
	tournamentSvc *service.TournamentService,
	disputeSvc *service.DisputeService,
) http.Handler {
	router := http.NewServeMux()

	dealHandler := handler.NewDealHandler(ledgerSvc, tournamentSvc, disputeSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)
	statsHandler := handler.NewStatsHandler(ledgerSvc, tournamentSvc)
	disputeHandler := handler.NewDisputeHandler(disputeSvc)
	tournamentHandler := handler.NewTournamentHandler(tournamentSvc)

	router.HandleFunc("/api/deals", dealHandler.Deals)
	router.HandleFunc("/api/deals/", dealHandler.AdjustPoints)
	router.HandleFunc("/api/leaderboard", leaderboardHandler.GetLeaderboard)
	router.HandleFunc("/api/leaderboard/history", leaderboardHandler.GetHistory)
	router.HandleFunc("/api/users/", statsHandler.GetUserStats)
	router.HandleFunc("/api/tournament/stats", statsHandler.GetTournamentStats)
	router.HandleFunc("/api/tournament/week", tournamentHandler.GetCurrentWeek)
	router.HandleFunc("/api/tournament/advance", tournamentHandler.AdvanceWeek)
	router.HandleFunc("/api/disputes", disputeHandler.RaiseDispute)
	router.HandleFunc("/api/disputes/pending", disputeHandler.ListPending)
	router.HandleFunc("/api/disputes/", disputeHandler.ResolveDispute)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/health", handler.HandleHealth)

	return router
}
